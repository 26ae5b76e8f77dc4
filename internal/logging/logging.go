// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the zerolog root logger shared by all commands.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pdiddy/resource-miner/pkg/types"
)

// Options configures the root logger.
type Options struct {
	Level  string
	Format string
	RunID  string
	Writer io.Writer
}

// FromConfig maps the log section of the pipeline config to Options.
func FromConfig(cfg types.LogConfig, runID string) Options {
	return Options{Level: cfg.Level, Format: cfg.Format, RunID: runID}
}

// New returns a logger writing to opt.Writer (stderr by default). Format
// "json" emits one JSON object per line; anything else uses the console
// writer.
func New(opt Options) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	var w io.Writer = os.Stderr
	if opt.Writer != nil {
		w = opt.Writer
	}
	if strings.ToLower(opt.Format) != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(w).Level(ParseLevel(opt.Level)).With().Timestamp()
	if opt.RunID != "" {
		ctx = ctx.Str("run_id", opt.RunID)
	}
	return ctx.Logger()
}

// Component returns a child logger tagged with a pipeline stage name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}

// ParseLevel maps a level name to a zerolog level, defaulting to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
