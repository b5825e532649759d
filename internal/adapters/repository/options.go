package repository

import "time"

// MemoryOption applies a configuration option to the MemoryStore.
type MemoryOption func(*MemoryStore)

// WithSweepInterval sets how often expired keys are purged.
func WithSweepInterval(interval time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if interval > 0 {
			s.sweepInterval = interval
		}
	}
}

// RedisOption applies a configuration option to the RedisStore.
type RedisOption func(*RedisStore)

// WithScanCount sets the COUNT hint used by SCAN.
func WithScanCount(n int64) RedisOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.scanCount = n
		}
	}
}

// SeasonOption applies a configuration option to the SeasonRepository.
type SeasonOption func(*SeasonRepository)

// WithTTL expires season keys after ttl; 0 keeps them.
func WithTTL(ttl time.Duration) SeasonOption {
	return func(r *SeasonRepository) {
		if ttl >= 0 {
			r.ttl = ttl
		}
	}
}

// WithJobTTL sets how long refresh jobs stay readable.
func WithJobTTL(ttl time.Duration) SeasonOption {
	return func(r *SeasonRepository) {
		if ttl > 0 {
			r.jobTTL = ttl
		}
	}
}
