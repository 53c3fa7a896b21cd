// Package logger configures the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"medrecon/internal/config"
)

// Init sets the global logger from cfg. Format "json" writes one JSON
// object per line; anything else uses the human-readable console writer.
// An unknown level falls back to info.
func Init(cfg config.LogConfig) zerolog.Logger {
	return InitWithWriter(cfg, os.Stdout)
}

// InitWithWriter is Init with an explicit destination.
func InitWithWriter(cfg config.LogConfig, out io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	var l zerolog.Logger
	if cfg.Format == "json" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		l = zerolog.New(out).With().Timestamp().Str("service", "medrecon").Logger()
	} else {
		l = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}).
			With().Timestamp().Logger()
	}

	log.Logger = l
	return l
}

// Component returns a child of the global logger tagged with name.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
