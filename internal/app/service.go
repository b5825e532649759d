// Package service provides the core business service that implements
// the dependencies required by the HTTP API: season refreshes, refresh jobs
// and the read paths over cached true records.
package service

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	jobqueue "github.com/okian/truerecord/internal/adapters/mq/queue"
	workerpool "github.com/okian/truerecord/internal/adapters/mq/worker"
	"github.com/okian/truerecord/internal/adapters/repository"
	"github.com/okian/truerecord/internal/domain/dedupe"
	"github.com/okian/truerecord/internal/domain/model"
	"github.com/okian/truerecord/pkg/logger"
	"github.com/okian/truerecord/pkg/metrics"
)

// SportsData is the upstream fantasy API.
type SportsData interface {
	FetchWeek(ctx context.Context, leagueID string, season, week int) (model.WeekData, error)
	FetchLeague(ctx context.Context, leagueID string, season int) (model.LeagueData, error)
}

// Service implements the API dependencies for the true record system.
type Service struct {
	mu sync.RWMutex

	// Core components
	source     SportsData
	repo       *repository.SeasonRepository
	running    dedupe.Deduper // refreshes executing now
	queued     dedupe.Deduper // refreshes waiting in the queue
	jobQueue   jobqueue.Queue
	workerPool *workerpool.Pool

	// Configuration
	leagueID         string
	season           int
	firstWeek        int
	lastWeek         int
	fetchConcurrency int
	workerCount      int
	queueSize        int

	// State
	started bool

	now    func() time.Time
	newID  func() string
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithLeague sets the league and season used when a request names none.
func WithLeague(leagueID string, season int) Option {
	return func(s *Service) {
		s.leagueID = leagueID
		if season > 0 {
			s.season = season
		}
	}
}

// WithWeekRange bounds the weeks a refresh fetches.
func WithWeekRange(first, last int) Option {
	return func(s *Service) {
		if first >= 1 && last >= first {
			s.firstWeek, s.lastWeek = first, last
		}
	}
}

// WithFetchConcurrency bounds concurrent week fetches.
func WithFetchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchConcurrency = n
		}
	}
}

// WithWorkerCount sets the number of refresh workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of queued refresh jobs.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces the job id generator, for tests.
func WithIDGenerator(gen func() string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New constructs a new Service. source and repo are owned by the caller.
func New(source SportsData, repo *repository.SeasonRepository, opts ...Option) *Service {
	s := &Service{
		source:           source,
		repo:             repo,
		running:          dedupe.NewInMemoryDeduper(),
		queued:           dedupe.NewInMemoryDeduper(),
		season:           time.Now().Year(),
		firstWeek:        1,
		lastWeek:         17,
		fetchConcurrency: 4,
		workerCount:      runtime.NumCPU(),
		queueSize:        64,
		now:              time.Now,
		newID:            uuid.NewString,
		logger:           logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start creates the job queue and starts the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	s.jobQueue = jobqueue.NewInMemoryQueue(jobqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.jobQueue, workerpool.HandlerFunc(s.handleJob),
		workerpool.WithLogger(s.logger))
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "truerecord service started",
		logger.String("league", s.leagueID),
		logger.Int("season", s.season),
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
	)
	return nil
}

// Stop closes the queue and waits for running jobs.
func (s *Service) Stop(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	if err := s.workerPool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool shutdown incomplete", logger.Error(err))
	}
	s.started = false
	s.logger.Info(ctx, "truerecord service stopped")
}

// Resolve fills an empty league or non-positive season with the defaults.
// League ids are ESPN integers; anything else could alias another season's
// cache keys and is rejected.
func (s *Service) Resolve(leagueID string, season int) (string, int, error) {
	if leagueID == "" {
		leagueID = s.leagueID
	}
	if season <= 0 {
		season = s.season
	}
	if leagueID == "" {
		return "", 0, fmt.Errorf("%w: league id required", ErrBadRequest)
	}
	if _, err := strconv.ParseUint(leagueID, 10, 64); err != nil {
		return "", 0, fmt.Errorf("%w: league id %q must be numeric", ErrBadRequest, leagueID)
	}
	return leagueID, season, nil
}

// Health pings the cache.
func (s *Service) Health(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"league":           s.leagueID,
		"season":           s.season,
		"firstWeek":        s.firstWeek,
		"lastWeek":         s.lastWeek,
		"fetchConcurrency": s.fetchConcurrency,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"refreshesRunning": s.running.Size(),
		"refreshesQueued":  s.queued.Size(),
	}
	if s.started {
		queueLen := s.jobQueue.Len(context.Background())
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}

func flightKey(leagueID string, season int) string {
	return leagueID + ":" + strconv.Itoa(season)
}
