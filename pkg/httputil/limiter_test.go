package httputil

import (
	"sync"
	"testing"
)

func TestLimiter_CapacityBound(t *testing.T) {
	l := NewLimiter(2)

	if !l.TryAcquire() || !l.TryAcquire() {
		t.Fatal("Expected both slots to be available")
	}
	if l.TryAcquire() {
		t.Error("Expected acquisition to fail at capacity")
	}
	if l.Dropped() != 1 {
		t.Errorf("Expected 1 drop, got %d", l.Dropped())
	}

	l.Release()
	if !l.TryAcquire() {
		t.Error("Expected slot to be reusable after release")
	}
	if l.InFlight() != 2 {
		t.Errorf("Expected 2 in flight, got %d", l.InFlight())
	}
}

func TestLimiter_DefaultCapacity(t *testing.T) {
	l := NewLimiter(0)
	for i := 0; i < 8; i++ {
		if !l.TryAcquire() {
			t.Fatalf("Expected default capacity of 8, failed at slot %d", i)
		}
	}
	if l.TryAcquire() {
		t.Error("Expected acquisition to fail past default capacity")
	}
}

func TestLimiter_ReleaseWithoutAcquire(t *testing.T) {
	l := NewLimiter(1)
	l.Release() // must not panic or corrupt the count
	if !l.TryAcquire() {
		t.Error("Expected slot available after spurious release")
	}
}

func TestLimiter_Concurrent(t *testing.T) {
	l := NewLimiter(4)

	var wg sync.WaitGroup
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if l.TryAcquire() {
				if l.InFlight() > 4 {
					t.Error("In-flight count exceeded capacity")
				}
				l.Release()
			}
		}()
	}
	wg.Wait()

	if l.InFlight() != 0 {
		t.Errorf("Expected 0 in flight after drain, got %d", l.InFlight())
	}
}
