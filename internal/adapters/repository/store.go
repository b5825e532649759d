// Package repository persists weekly scores, true records and refresh jobs
// in a key/value cache (Redis, or memory for local runs and tests).
package repository

import (
	"context"
	"time"
)

// Store is the key/value cache contract.
type Store interface {
	// Get returns ErrNotFound when the key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value; ttl <= 0 keeps the key until deleted.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetMany stores all entries with the same ttl.
	SetMany(ctx context.Context, entries map[string][]byte, ttl time.Duration) error
	// ScanKeys returns every key starting with prefix, sorted.
	ScanKeys(ctx context.Context, prefix string) ([]string, error)
	// Delete removes keys; absent keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	// Ping reports whether the backend is reachable.
	Ping(ctx context.Context) error
	Close() error
}
