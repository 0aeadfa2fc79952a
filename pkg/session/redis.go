package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "baitline:session:"

// redisTxRetries bounds optimistic-lock retries when concurrent writers
// race on the same session key.
const redisTxRetries = 32

// RedisStore implements Store on a redis backend so multiple gateway
// nodes can share session state. Records are stored as JSON under a
// prefixed key with a TTL; the per-key exclusive window is provided by
// WATCH-based optimistic transactions.
type RedisStore struct {
	rdb    *redis.Client
	maxAge time.Duration
}

// RedisOption is a functional option for configuring RedisStore.
type RedisOption func(*RedisStore)

// WithRedisTTL sets the maximum idle age for sessions. Redis handles
// expiry itself, so no sweep goroutine is needed.
func WithRedisTTL(d time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.maxAge = d
	}
}

// NewRedisStore creates a redis-backed session store on an existing
// client. The caller owns the client's lifecycle until Close is called.
func NewRedisStore(rdb *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		rdb:    rdb,
		maxAge: 1 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func redisKey(id string) string { return redisKeyPrefix + id }

// Update runs fn on the record for id under optimistic locking. The
// record is created lazily on first access; if another writer commits
// first the transaction is retried with the fresh record.
func (s *RedisStore) Update(ctx context.Context, id string, fn func(*Record) error) (*Record, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}

	key := redisKey(id)
	var updated *Record

	txn := func(tx *redis.Tx) error {
		rec, err := loadRecord(ctx, tx, key)
		if err != nil {
			return err
		}
		now := time.Now()
		if rec == nil {
			rec = &Record{ID: id, CreatedAt: now}
		}

		if err := fn(rec); err != nil {
			return err
		}
		rec.LastSeenAt = now

		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("encode session %s: %w", id, err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, s.maxAge)
			return nil
		})
		if err != nil {
			return err
		}
		updated = rec
		return nil
	}

	for i := 0; i < redisTxRetries; i++ {
		err := s.rdb.Watch(ctx, txn, key)
		if err == nil {
			return updated.Clone(), nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue // Another writer won the race, retry on fresh state
		}
		return nil, fmt.Errorf("update session %s: %w", id, err)
	}
	return nil, fmt.Errorf("update session %s: too many concurrent writers", id)
}

// Get returns a copy of the record, or nil if absent or expired.
func (s *RedisStore) Get(ctx context.Context, id string) (*Record, error) {
	if id == "" {
		return nil, ErrEmptySessionID
	}

	rec, err := loadRecord(ctx, s.rdb, redisKey(id))
	if err != nil {
		return nil, fmt.Errorf("get session %s: %w", id, err)
	}
	return rec, nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

// loadRecord fetches and decodes a record. Returns nil, nil when the key
// does not exist.
func loadRecord(ctx context.Context, c redis.Cmdable, key string) (*Record, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Not found is not an error
	}
	if err != nil {
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode session record: %w", err)
	}
	return &rec, nil
}

// Ensure RedisStore implements Store
var _ Store = (*RedisStore)(nil)
