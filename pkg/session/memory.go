package session

import (
	"context"
	"hash/fnv"
	"sync"
	"time"
)

const memoryShards = 32

// MemoryStore implements Store with sharded in-memory storage and
// TTL-based cleanup. Suitable for single-node deployments; distributed
// deployments should use RedisStore.
type MemoryStore struct {
	shards [memoryShards]memoryShard

	// Configuration
	maxAge        time.Duration // Session TTL (default: 1 hour)
	sweepInterval time.Duration // Cleanup interval (default: 5 minutes)

	// Cleanup goroutine control
	stopSweep chan struct{}
	sweepOnce sync.Once

	now func() time.Time
}

type memoryShard struct {
	mu       sync.Mutex
	sessions map[string]*Record
}

// MemoryOption is a functional option for configuring MemoryStore.
type MemoryOption func(*MemoryStore)

// WithTTL sets the maximum idle age for sessions before cleanup.
func WithTTL(d time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		s.maxAge = d
	}
}

// WithSweepInterval sets how often the cleanup routine runs.
func WithSweepInterval(d time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		s.sweepInterval = d
	}
}

// withClock overrides the time source for expiry tests.
func withClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		s.now = now
	}
}

// NewMemoryStore creates a new in-memory session store and starts its
// background cleanup goroutine.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		maxAge:        1 * time.Hour,
		sweepInterval: 5 * time.Minute,
		stopSweep:     make(chan struct{}),
		now:           time.Now,
	}
	for i := range s.shards {
		s.shards[i].sessions = make(map[string]*Record)
	}

	for _, opt := range opts {
		opt(s)
	}

	go s.sweepLoop()

	return s
}

func (s *MemoryStore) shard(id string) *memoryShard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return &s.shards[h.Sum32()%memoryShards]
}

// Update runs fn on the record for id inside its shard lock, creating the
// record on first access. A stale record is replaced rather than revived.
func (s *MemoryStore) Update(_ context.Context, id string, fn func(*Record) error) (*Record, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}

	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	now := s.now()
	rec, ok := sh.sessions[id]
	if !ok || now.Sub(rec.LastSeenAt) > s.maxAge {
		rec = &Record{ID: id, CreatedAt: now}
	}

	// Run fn on a copy so a failed update leaves the stored record intact.
	work := rec.Clone()
	if err := fn(work); err != nil {
		return nil, err
	}
	work.LastSeenAt = now

	sh.sessions[id] = work
	return work.Clone(), nil
}

// Get returns a copy of the record, or nil if absent or expired. Expired
// records are treated as not found; actual removal happens in sweepLoop.
func (s *MemoryStore) Get(_ context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}

	sh := s.shard(id)
	sh.mu.Lock()
	defer sh.mu.Unlock()

	rec, ok := sh.sessions[id]
	if !ok {
		return nil, nil // Not found is not an error
	}
	if s.now().Sub(rec.LastSeenAt) > s.maxAge {
		return nil, nil
	}

	return rec.Clone(), nil
}

// Close stops the cleanup goroutine.
func (s *MemoryStore) Close() error {
	s.sweepOnce.Do(func() {
		close(s.stopSweep)
	})
	return nil
}

// sweepLoop periodically removes expired sessions.
func (s *MemoryStore) sweepLoop() {
	ticker := time.NewTicker(s.sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep()
		case <-s.stopSweep:
			return
		}
	}
}

// sweep removes expired sessions across all shards.
func (s *MemoryStore) sweep() {
	now := s.now()
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		for id, rec := range sh.sessions {
			if now.Sub(rec.LastSeenAt) > s.maxAge {
				delete(sh.sessions, id)
			}
		}
		sh.mu.Unlock()
	}
}

// Stats returns current session store statistics.
func (s *MemoryStore) Stats() StoreStats {
	var stats StoreStats
	for i := range s.shards {
		sh := &s.shards[i]
		sh.mu.Lock()
		stats.SessionCount += len(sh.sessions)
		for _, rec := range sh.sessions {
			stats.TotalMessages += rec.MessageCount
			if rec.Confirmed {
				stats.ConfirmedCount++
			}
		}
		sh.mu.Unlock()
	}
	return stats
}

// StoreStats contains session store statistics.
type StoreStats struct {
	SessionCount   int `json:"session_count"`
	ConfirmedCount int `json:"confirmed_count"`
	TotalMessages  int `json:"total_messages"`
}

// Ensure MemoryStore implements Store
var _ Store = (*MemoryStore)(nil)
