// Package logger builds the application's root zerolog.Logger from a small
// Config, the single place log level and output formatting are decided.
package logger

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config controls how the root logger is built.
type Config struct {
	// Level is one of "debug", "info", "warn", "error". Unrecognized
	// values fall back to "info".
	Level string
	// Pretty enables a human-readable console writer instead of JSON
	// lines, for interactive CLI use.
	Pretty bool
}

// New builds a zerolog.Logger from cfg, writing to stderr with a
// timestamp and caller on every entry.
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = zerolog.InfoLevel
	}

	var writer = os.Stderr
	logger := zerolog.New(writer)
	if cfg.Pretty {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: writer, TimeFormat: time.RFC3339})
	}

	return logger.Level(level).With().Timestamp().Caller().Logger()
}
