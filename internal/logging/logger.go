// Marketrec - Marketplace Recommendation Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marketrec

// Package logging provides the process-wide zerolog logger.
//
// Call Init once from main; until then a JSON logger at info level writes
// to stderr. Components derive child loggers with a component field:
//
//	logger := logging.WithComponent("api")
//	logger.Info().Str("addr", addr).Msg("listening")
//
// Request-scoped fields travel through the context; see Ctx.
package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logging configuration.
type Config struct {
	// Level is the minimum level: trace, debug, info, warn, error, fatal,
	// panic or disabled. Default: info.
	Level string `koanf:"level" validate:"omitempty,oneof=trace debug info warn warning error fatal panic disabled"`

	// Format is json or console. Default: json.
	Format string `koanf:"format" validate:"omitempty,oneof=json console"`

	// Caller adds file:line to every entry.
	Caller bool `koanf:"caller"`

	// Timestamp adds a time field. Default: true.
	Timestamp bool `koanf:"timestamp"`

	// Output defaults to os.Stderr.
	Output io.Writer `koanf:"-"`
}

// DefaultConfig returns the production logging configuration.
func DefaultConfig() Config {
	return Config{
		Level:     "info",
		Format:    "json",
		Timestamp: true,
		Output:    os.Stderr,
	}
}

var (
	mu     sync.RWMutex
	global zerolog.Logger
)

//nolint:gochecknoinits // logging must work before Init is called
func init() {
	configure(DefaultConfig())
}

// Init (re)configures the global logger.
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	configure(cfg)
}

// configure must be called with mu held.
func configure(cfg Config) {
	if cfg.Output == nil {
		cfg.Output = os.Stderr
	}

	zerolog.SetGlobalLevel(ParseLevel(cfg.Level))
	zerolog.TimeFieldFormat = time.RFC3339
	zerolog.TimestampFieldName = "time"
	zerolog.MessageFieldName = "message"

	var out io.Writer = cfg.Output
	if strings.EqualFold(cfg.Format, "console") {
		out = zerolog.ConsoleWriter{Out: cfg.Output, TimeFormat: "15:04:05"}
	}

	ctx := zerolog.New(out).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	if cfg.Caller {
		ctx = ctx.Caller()
	}
	global = ctx.Logger()
}

// ParseLevel converts a level name to a zerolog level. Unknown or empty
// names map to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "warning":
		return zerolog.WarnLevel
	case "disabled":
		return zerolog.Disabled
	}
	l, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || l == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return l
}

// Logger returns the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// SetLogger replaces the global logger, typically in tests.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func SetLogger(l zerolog.Logger) {
	mu.Lock()
	defer mu.Unlock()
	global = l
}

// With starts a child logger context.
func With() zerolog.Context {
	l := Logger()
	return l.With()
}

// WithComponent returns a child logger tagged with a component name.
func WithComponent(component string) zerolog.Logger {
	return With().Str("component", component).Logger()
}

// Debug starts a debug entry.
func Debug() *zerolog.Event {
	l := Logger()
	return l.Debug()
}

// Info starts an info entry.
func Info() *zerolog.Event {
	l := Logger()
	return l.Info()
}

// Warn starts a warning entry.
func Warn() *zerolog.Event {
	l := Logger()
	return l.Warn()
}

// Error starts an error entry.
func Error() *zerolog.Event {
	l := Logger()
	return l.Error()
}

// Fatal starts a fatal entry; os.Exit(1) follows the write.
func Fatal() *zerolog.Event {
	l := Logger()
	return l.Fatal()
}

// Err starts an error entry carrying err.
func Err(err error) *zerolog.Event {
	l := Logger()
	return l.Err(err)
}

// NewTestLogger returns a JSON logger writing to w.
func NewTestLogger(w io.Writer) zerolog.Logger {
	return zerolog.New(w).With().Timestamp().Logger()
}
