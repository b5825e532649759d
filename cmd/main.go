package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/okian/truerecord/internal/adapters/http/api"
	"github.com/okian/truerecord/internal/adapters/scheduler"
	app "github.com/okian/truerecord/internal/app"
	"github.com/okian/truerecord/internal/cli"
	"github.com/okian/truerecord/internal/config"
	"github.com/okian/truerecord/pkg/logger"
	"github.com/okian/truerecord/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	requestTimeout            = 8 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	triggerTimeout            = 10 * time.Second
	systemMetricsInterval     = 10 * time.Second
	serviceMetricsInterval    = 5 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Runtime gauges are sampled by sampleRuntime instead.
	prometheus.Unregister(collectors.NewGoCollector())
	prometheus.Unregister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	configPath := flag.String("config", "", "YAML config file (default: $TRUERECORD_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		// Use stderr for initialization errors since logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	loggerInstance, err := cli.SetupLogging(cfg, os.Stdout)
	if loggerInstance == nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()

	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err != nil {
		loggerInstance.Warn(ctx, "invalid log_level; falling back to info", logger.Error(err))
	}

	if err := run(ctx, cfg, loggerInstance); err != nil {
		loggerInstance.Error(ctx, "truerecord exited", logger.Error(err))
		stop()
		os.Exit(1)
	}
}

// run wires every component and blocks until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	store, closeStore, err := cli.OpenStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer closeStore()

	svc := cli.NewService(cfg, cli.NewESPNClient(cfg, log), store, log)
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		svc.Stop(stopCtx)
	}()

	sched, err := startScheduler(ctx, cfg, svc, log)
	if err != nil {
		return err
	}
	if sched != nil {
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = sched.Stop(stopCtx)
		}()
	}

	if cfg.RefreshOnStart && cfg.LeagueID != "" {
		if err := refreshTrigger(svc, "startup", log)(ctx); err != nil {
			log.Warn(ctx, "startup refresh not queued", logger.Error(err))
		}
	}

	go every(ctx, systemMetricsInterval, sampleRuntime)
	// GetStats refreshes the queue gauges as a side effect.
	go every(ctx, serviceMetricsInterval, func() { _ = svc.GetStats() })

	srv := newHTTPServer(ctx, cfg, svc, log)
	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}

	log.Info(ctx, "server stopped")
	return nil
}

func newHTTPServer(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) *http.Server {
	apiServer := api.NewServer(svc,
		api.WithCORSOrigins(cfg.CORSOrigins),
		api.WithRequestTimeout(requestTimeout),
		api.WithLogger(log.Named("http")),
	)
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           apiServer.Handler(ctx),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

// startScheduler starts the cron refresh. A nil scheduler with a nil error
// means scheduled refreshes are disabled.
func startScheduler(ctx context.Context, cfg *config.Config, svc *app.Service, log logger.Logger) (*scheduler.Scheduler, error) {
	if cfg.LeagueID == "" {
		log.Warn(ctx, "league_id not set; scheduled refreshes disabled")
		return nil, nil
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %w", config.ErrInvalidConfig, cfg.Timezone, err)
	}
	sched, err := scheduler.New(cfg.RefreshSchedule, refreshTrigger(svc, "schedule", log),
		scheduler.WithLocation(loc),
		scheduler.WithTriggerTimeout(triggerTimeout),
		scheduler.WithLogger(log.Named("scheduler")),
	)
	if err != nil {
		return nil, err
	}
	if err := sched.Start(ctx); err != nil {
		if errors.Is(err, scheduler.ErrNoSchedule) {
			log.Info(ctx, "refresh_schedule empty; scheduled refreshes disabled")
			return nil, nil
		}
		return nil, err
	}
	log.Info(ctx, "refresh scheduled",
		logger.String("schedule", cfg.RefreshSchedule),
		logger.String("next", sched.Next().Format(time.RFC3339)))
	return sched, nil
}

// refreshTrigger queues a refresh of the configured league. A refresh
// already in flight is not an error.
func refreshTrigger(svc *app.Service, source string, log logger.Logger) scheduler.Trigger {
	return func(ctx context.Context) error {
		job, err := svc.SubmitRefresh(ctx, "", 0, source)
		if errors.Is(err, app.ErrRefreshInFlight) {
			log.Debug(ctx, "refresh already in flight", logger.String("source", source))
			return nil
		}
		if err != nil {
			return err
		}
		log.Info(ctx, "refresh queued", logger.String("job_id", job.ID), logger.String("source", source))
		return nil
	}
}

// every calls fn on each tick until ctx is done.
func every(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

func sampleRuntime() {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	metrics.UpdateSystemMemoryUsage(ms.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if ms.NumGC > 0 {
		metrics.RecordSystemGCPauseTime(float64(ms.PauseTotalNs) / float64(ms.NumGC) / nanosecondsPerMillisecond)
	}
}
