package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/okian/truerecord/pkg/metrics"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on a go-redis client owned by the caller.
type RedisStore struct {
	client    *redis.Client
	scanCount int64
}

// NewRedisStore wraps client. Close does not close the client.
func NewRedisStore(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, scanCount: 100}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func observe(op string, start time.Time, err error) {
	metrics.RecordCacheOp(op, float64(time.Since(start).Microseconds())/1000, err != nil)
}

// Get implements Store.Get.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	start := time.Now()
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		observe("get", start, nil)
		return nil, ErrNotFound
	}
	observe("get", start, err)
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return b, nil
}

// Set implements Store.Set.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	start := time.Now()
	err := s.client.Set(ctx, key, value, positive(ttl)).Err()
	observe("set", start, err)
	if err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// SetMany implements Store.SetMany with a single pipeline round trip.
func (s *RedisStore) SetMany(ctx context.Context, entries map[string][]byte, ttl time.Duration) error {
	if len(entries) == 0 {
		return nil
	}
	start := time.Now()
	pipe := s.client.Pipeline()
	for k, v := range entries {
		pipe.Set(ctx, k, v, positive(ttl))
	}
	_, err := pipe.Exec(ctx)
	observe("set_many", start, err)
	if err != nil {
		return fmt.Errorf("redis pipeline set: %w", err)
	}
	return nil
}

// ScanKeys implements Store.ScanKeys using SCAN, never KEYS.
func (s *RedisStore) ScanKeys(ctx context.Context, prefix string) ([]string, error) {
	start := time.Now()
	var keys []string
	iter := s.client.Scan(ctx, 0, escapeGlob(prefix)+"*", s.scanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	err := iter.Err()
	observe("scan", start, err)
	if err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", prefix, err)
	}
	sort.Strings(keys)
	return dedupeSorted(keys), nil
}

// Delete implements Store.Delete.
func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	start := time.Now()
	err := s.client.Del(ctx, keys...).Err()
	observe("delete", start, err)
	if err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// Ping implements Store.Ping.
func (s *RedisStore) Ping(ctx context.Context) error {
	start := time.Now()
	err := s.client.Ping(ctx).Err()
	observe("ping", start, err)
	return err
}

// Close is a no-op; main owns the client.
func (s *RedisStore) Close() error { return nil }

func positive(ttl time.Duration) time.Duration {
	if ttl < 0 {
		return 0
	}
	return ttl
}

var globReplacer = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func escapeGlob(s string) string { return globReplacer.Replace(s) }

// SCAN may return a key more than once.
func dedupeSorted(keys []string) []string {
	if len(keys) < 2 {
		return keys
	}
	out := keys[:1]
	for _, k := range keys[1:] {
		if k != out[len(out)-1] {
			out = append(out, k)
		}
	}
	return out
}
