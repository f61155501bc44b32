// Package logging provides structured logging for masterlink using zerolog.
// Console output is used when stderr is a terminal and JSON otherwise, and
// loggers travel through a linkage run on the context.
//
// Example usage:
//
//	log := logging.Default()
//	log.Info().Str("source", "volgistics").Int("rows", 12).Msg("Candidates assembled")
//
//	ctx := logging.WithRunID(context.Background(), runID)
//	logging.FromContext(ctx).Debug().Msg("Coalescing master fields")
package logging

import (
	"io"
	"os"
	"sync"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	mu            sync.RWMutex
	defaultLogger = NewLoggerFromConfig(envConfig())
)

// Default returns the package-wide logger used when no logger travels on
// the context.
func Default() *zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	l := defaultLogger
	return &l
}

// SetDefault replaces the package-wide logger and zerolog's global logger.
func SetDefault(logger zerolog.Logger) {
	mu.Lock()
	defaultLogger = logger
	mu.Unlock()
	log.Logger = logger
}

// envConfig derives the startup configuration from MASTERLINK_LOG_* variables.
func envConfig() *Config {
	cfg := DefaultConfig()
	if v := os.Getenv("MASTERLINK_LOG_LEVEL"); v != "" {
		cfg.Level = v
	}
	if v := os.Getenv("MASTERLINK_LOG_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("MASTERLINK_LOG_OUTPUT"); v != "" {
		cfg.Output = v
	}
	return cfg
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
