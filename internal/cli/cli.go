// Package cli holds process wiring shared by the server and the one-shot
// refresh command.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/okian/truerecord/internal/config"
	"github.com/okian/truerecord/pkg/logger"
)

// SetupLogging initializes the global logger from cfg. An invalid level
// falls back to info and is reported on the returned logger.
func SetupLogging(cfg *config.Config, w io.Writer) (logger.Logger, error) {
	if err := logger.Init(logger.WithFormat(cfg.LogFormat), logger.WithWriter(w)); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		_ = logger.SetLevelString("info")
		return logger.Get(), fmt.Errorf("invalid log_level %q; using info: %w", cfg.LogLevel, err)
	}
	return logger.Get(), nil
}

// ShowHelp prints usage information for the refresh tool.
func ShowHelp(w io.Writer) {
	if w == nil {
		w = os.Stdout
	}
	_, _ = io.WriteString(w, `truerecord refresh
==================

Fetches a fantasy football season, recomputes every team's all-play record
and writes it to the configured cache.

Usage:
  refresh [options]

Options:
  -config string
        YAML config file (default: $TRUERECORD_CONFIG)
  -league string
        League id (default: league_id from config)
  -season int
        Season year (default: season from config)
  -timeout duration
        Overall deadline for the refresh (default 2m)
  -print
        Print the standings table after refreshing (default true)
  -help
        Show this help message

Examples:
  # Refresh the configured league into redis
  refresh -config truerecord.yaml

  # Refresh another season into an in-memory cache and print it
  TRUERECORD_CACHE_DRIVER=memory refresh -league 123456 -season 2023
`)
}
