package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/okian/truerecord/internal/adapters/repository"
	"github.com/okian/truerecord/internal/adapters/sportsdata/espn"
	service "github.com/okian/truerecord/internal/app"
	"github.com/okian/truerecord/internal/config"
	"github.com/okian/truerecord/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// OpenStore connects the cache selected by cfg.CacheDriver. The returned
// close func releases the store and any client behind it.
func OpenStore(ctx context.Context, cfg *config.Config, log logger.Logger) (repository.Store, func(), error) {
	switch strings.ToLower(cfg.CacheDriver) {
	case config.CacheDriverMemory:
		store := repository.NewMemoryStore(ctx)
		log.Warn(ctx, "using in-memory cache; data is lost on restart")
		return store, func() { _ = store.Close() }, nil

	case config.CacheDriverRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("parse redis_url: %w", err)
		}
		client := redis.NewClient(opts)
		store := repository.NewRedisStore(client)
		if err := store.Ping(ctx); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", opts.Addr, err)
		}
		log.Info(ctx, "connected to redis", logger.String("addr", opts.Addr), logger.Int("db", opts.DB))
		return store, func() { _ = store.Close(); _ = client.Close() }, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown cache_driver %q", config.ErrInvalidConfig, cfg.CacheDriver)
}

// NewESPNClient builds the sports-data client from cfg.
func NewESPNClient(cfg *config.Config, log logger.Logger) *espn.Client {
	return espn.New(
		espn.WithBaseURL(cfg.ESPNBaseURL),
		espn.WithTimeout(cfg.HTTPTimeout()),
		espn.WithCookies(cfg.ESPNS2, cfg.ESPNSWID),
		espn.WithLogger(log.Named("espn")),
	)
}

// NewService builds the service over store with the options cfg carries.
func NewService(cfg *config.Config, source service.SportsData, store repository.Store, log logger.Logger) *service.Service {
	repo := repository.NewSeasonRepository(store,
		repository.WithTTL(cfg.CacheTTL()),
		repository.WithJobTTL(cfg.JobTTL()),
	)
	return service.New(source, repo,
		service.WithLeague(cfg.LeagueID, cfg.Season),
		service.WithWeekRange(cfg.FirstWeek, cfg.LastWeek),
		service.WithFetchConcurrency(cfg.FetchConcurrency),
		service.WithWorkerCount(cfg.WorkerCount),
		service.WithQueueSize(cfg.QueueSize),
		service.WithLogger(log.Named("service")),
	)
}
