package session

import (
	"context"
	"errors"
)

// ErrEmptySessionID is returned when a store operation is called without
// a session identifier.
var ErrEmptySessionID = errors.New("session id is required")

// Store guards session records and hands out exclusive update windows.
//
// Update loads the record for id (creating it lazily on first access),
// runs fn on it while no other update for the same id can run, persists
// the result, and returns a deep copy safe to read without the lock.
// If fn returns an error the record is left unchanged and the error is
// propagated.
//
// Updates for distinct ids may proceed concurrently.
type Store interface {
	// Update runs fn inside the id's exclusive window.
	Update(ctx context.Context, id string, fn func(*Record) error) (*Record, error)

	// Get returns a deep copy of the record, or nil if the session does
	// not exist.
	Get(ctx context.Context, id string) (*Record, error)

	// Close releases background resources. Safe to call more than once.
	Close() error
}
