package storage

import (
	"context"
	"errors"
)

// Package storage contains the durable key-value slot abstraction the
// provenance ledger is mirrored into, with S3-compatible and in-memory backends.

// ErrNotFound is returned by Slot.Get when nothing was ever stored under the key.
var ErrNotFound = errors.New("storage: key not found")

// Slot is a scoped durable key-value capability.
// Set must replace the whole value or leave the previous one in place; a
// concurrent Get never observes a partially written value.
type Slot interface {
	// Get returns the value stored under key, or ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error
	// PingContext checks that the backing medium is reachable.
	PingContext(ctx context.Context) error
}
