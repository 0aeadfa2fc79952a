package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestMemoryStore_LazyCreate(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx := context.Background()

	got, err := store.Get(ctx, "unknown")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != nil {
		t.Fatal("Expected nil record for unknown session")
	}

	rec, err := store.Update(ctx, "fresh", func(r *Record) error {
		r.RiskScore = 25
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if rec.ID != "fresh" {
		t.Errorf("Expected record id set on creation, got %q", rec.ID)
	}
	if rec.CreatedAt.IsZero() || rec.LastSeenAt.IsZero() {
		t.Error("Timestamps must be set on creation")
	}
	if rec.RiskScore != 25 {
		t.Errorf("Expected update applied, got risk %d", rec.RiskScore)
	}
}

func TestMemoryStore_EmptyID(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx := context.Background()

	if _, err := store.Update(ctx, "", func(*Record) error { return nil }); err != ErrEmptySessionID {
		t.Errorf("Expected ErrEmptySessionID from Update, got %v", err)
	}
	if _, err := store.Get(ctx, ""); err != ErrEmptySessionID {
		t.Errorf("Expected ErrEmptySessionID from Get, got %v", err)
	}
}

func TestMemoryStore_FailedUpdateLeavesRecordIntact(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx := context.Background()

	if _, err := store.Update(ctx, "s1", func(r *Record) error {
		r.RiskScore = 50
		return nil
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	boom := fmt.Errorf("boom")
	_, err := store.Update(ctx, "s1", func(r *Record) error {
		r.RiskScore = 99
		return boom
	})
	if err != boom {
		t.Fatalf("Expected fn error propagated, got %v", err)
	}

	rec, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.RiskScore != 50 {
		t.Errorf("Failed update must not persist: expected risk 50, got %d", rec.RiskScore)
	}
}

func TestMemoryStore_ReturnsIsolatedCopies(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx := context.Background()

	rec, err := store.Update(ctx, "s1", func(r *Record) error {
		r.Intelligence.Links.Add("http://evil.example")
		return nil
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	rec.Intelligence.Links.Add("http://injected.example")
	rec.RiskScore = 77

	stored, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if stored.Intelligence.Links.Len() != 1 || stored.RiskScore != 0 {
		t.Error("Mutating a returned record must not affect stored state")
	}
}

func TestMemoryStore_ConcurrentSameKey(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()

	ctx := context.Background()
	const workers = 16
	const turnsEach = 25

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < turnsEach; j++ {
				_, err := store.Update(ctx, "shared", func(r *Record) error {
					r.MessageCount++
					return nil
				})
				if err != nil {
					t.Errorf("Update failed: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	rec, err := store.Get(ctx, "shared")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec.MessageCount != workers*turnsEach {
		t.Errorf("Expected %d increments, got %d", workers*turnsEach, rec.MessageCount)
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }

	store := NewMemoryStore(WithTTL(time.Minute), withClock(clock))
	defer store.Close()

	ctx := context.Background()

	if _, err := store.Update(ctx, "s1", func(r *Record) error {
		r.RiskScore = 80
		r.Confirmed = true
		return nil
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	now = now.Add(2 * time.Minute)

	rec, err := store.Get(ctx, "s1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec != nil {
		t.Fatal("Expired session must read as not found")
	}

	// A new turn on the stale id starts a fresh record instead of
	// reviving the old one.
	fresh, err := store.Update(ctx, "s1", func(*Record) error { return nil })
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if fresh.RiskScore != 0 || fresh.Confirmed {
		t.Error("Stale record must be replaced, not revived")
	}
}

func TestMemoryStore_Sweep(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }

	store := NewMemoryStore(WithTTL(time.Minute), withClock(clock))
	defer store.Close()

	ctx := context.Background()
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("s%d", i)
		if _, err := store.Update(ctx, id, func(*Record) error { return nil }); err != nil {
			t.Fatalf("Update failed: %v", err)
		}
	}
	if got := store.Stats().SessionCount; got != 10 {
		t.Fatalf("Expected 10 sessions before sweep, got %d", got)
	}

	now = now.Add(2 * time.Minute)
	store.sweep()

	if got := store.Stats().SessionCount; got != 0 {
		t.Errorf("Expected 0 sessions after sweep, got %d", got)
	}
}

func TestMemoryStore_CloseIsIdempotent(t *testing.T) {
	store := NewMemoryStore()
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}
}
