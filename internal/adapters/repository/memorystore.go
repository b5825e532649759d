package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"
)

type memEntry struct {
	value     []byte
	expiresAt time.Time // zero = never
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// MemoryStore is an in-process Store used when no Redis is configured.
type MemoryStore struct {
	mu            sync.RWMutex
	data          map[string]memEntry
	sweepInterval time.Duration
	now           func() time.Time

	wg       sync.WaitGroup
	stopChan chan struct{}
	closed   bool
}

// NewMemoryStore constructs a memory store and starts its expiry sweeper.
func NewMemoryStore(ctx context.Context, opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		data:          make(map[string]memEntry),
		sweepInterval: time.Minute,
		now:           time.Now,
		stopChan:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startSweeper(ctx)
	return s
}

func (s *MemoryStore) startSweeper(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *MemoryStore) sweep() {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, e := range s.data {
		if e.expired(now) {
			delete(s.data, k)
		}
	}
}

func (s *MemoryStore) entry(value []byte, ttl time.Duration) memEntry {
	e := memEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	return e
}

// Get implements Store.Get.
func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	defer observe("get", start, nil)

	if s.closed {
		return nil, ErrClosed
	}
	e, ok := s.data[key]
	if !ok || e.expired(s.now()) {
		return nil, ErrNotFound
	}
	return append([]byte(nil), e.value...), nil
}

// Set implements Store.Set.
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer observe("set", start, nil)

	if s.closed {
		return ErrClosed
	}
	s.data[key] = s.entry(value, ttl)
	return nil
}

// SetMany implements Store.SetMany.
func (s *MemoryStore) SetMany(_ context.Context, entries map[string][]byte, ttl time.Duration) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer observe("set_many", start, nil)

	if s.closed {
		return ErrClosed
	}
	for k, v := range entries {
		s.data[k] = s.entry(v, ttl)
	}
	return nil
}

// ScanKeys implements Store.ScanKeys.
func (s *MemoryStore) ScanKeys(_ context.Context, prefix string) ([]string, error) {
	start := time.Now()
	s.mu.RLock()
	defer s.mu.RUnlock()
	defer observe("scan", start, nil)

	if s.closed {
		return nil, ErrClosed
	}
	now := s.now()
	var keys []string
	for k, e := range s.data {
		if strings.HasPrefix(k, prefix) && !e.expired(now) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	start := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	defer observe("delete", start, nil)

	if s.closed {
		return ErrClosed
	}
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

// Ping implements Store.Ping.
func (s *MemoryStore) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}
	return nil
}

// Close stops the sweeper. Further calls fail with ErrClosed.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.stopChan)
	s.mu.Unlock()

	s.wg.Wait()
	return nil
}
