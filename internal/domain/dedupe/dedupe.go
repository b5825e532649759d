// Package dedupe tracks keys of work that is currently in flight so the same
// league season is never refreshed twice at once.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records in-flight keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key is in flight and records it if not.
	// Returns true if the key was already recorded (or the guard is full),
	// false if it was newly recorded and the caller now owns it.
	SeenAndRecord(ctx context.Context, key string) bool

	// Unrecord releases a key once its work has finished or failed to start.
	Unrecord(ctx context.Context, key string)

	// Seen reports whether key is in flight without recording it.
	Seen(ctx context.Context, key string) bool

	Size() int64
}

type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	maxSize int // 0 or negative = unbounded
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		seen: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		return true
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		return true
	}
	d.seen[key] = struct{}{}
	d.size.Add(1)
	return false
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[key]; exists {
		delete(d.seen, key)
		d.size.Add(-1)
	}
}

func (d *inMemoryDeduper) Seen(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, exists := d.seen[key]
	return exists
}

// Size returns the current number of in-flight keys.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
