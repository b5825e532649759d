// Command refresh runs one season refresh in-process and prints the
// all-play standings.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/truerecord/internal/cli"
	"github.com/okian/truerecord/internal/config"
	"github.com/okian/truerecord/pkg/logger"
)

const defaultTimeout = 2 * time.Minute

func main() {
	var (
		configPath = flag.String("config", "", "YAML config file (default: $TRUERECORD_CONFIG)")
		league     = flag.String("league", "", "League id (default: league_id from config)")
		season     = flag.Int("season", 0, "Season year (default: season from config)")
		timeout    = flag.Duration("timeout", defaultTimeout, "Overall deadline for the refresh")
		printTable = flag.Bool("print", true, "Print the standings table after refreshing")
		help       = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		cli.ShowHelp(os.Stdout)
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	// Logs go to stderr so the table on stdout stays clean.
	log, err := cli.SetupLogging(cfg, os.Stderr)
	if log == nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.Error(err))
	}

	store, closeStore, err := cli.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Error(ctx, "failed to open cache", logger.Error(err))
		os.Exit(1)
	}

	svc := cli.NewService(cfg, cli.NewESPNClient(cfg, log), store, log)
	rc := cli.RefreshConfig{League: *league, Season: *season, Timeout: *timeout, Print: *printTable}
	err = cli.RunRefresh(ctx, svc, rc, os.Stdout, log)
	closeStore()
	if err != nil {
		log.Error(ctx, "refresh failed", logger.Error(err))
		stop()
		os.Exit(1)
	}
}
