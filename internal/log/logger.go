// Package log provides the process-wide structured logger.
package log

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Config captures options for configuring the global logger.
type Config struct {
	Level  string    // optional log level ("debug", "info", etc.)
	Output io.Writer // optional writer (defaults to os.Stderr)
	// Console forces human-readable output. When unset, console output is
	// used if Output is a terminal.
	Console *bool
}

var (
	mu   sync.RWMutex
	base zerolog.Logger
)

// Configure replaces the global logger. The level falls back to the
// REPODOC_LOG_LEVEL environment variable and then to info.
func Configure(cfg Config) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		if parsed, err := zerolog.ParseLevel(cfg.Level); err == nil {
			level = parsed
		}
	} else if env := os.Getenv("REPODOC_LOG_LEVEL"); env != "" {
		if parsed, err := zerolog.ParseLevel(env); err == nil {
			level = parsed
		}
	}
	zerolog.TimeFieldFormat = time.RFC3339

	writer := cfg.Output
	if writer == nil {
		writer = os.Stderr
	}

	console := isTerminal(writer)
	if cfg.Console != nil {
		console = *cfg.Console
	}
	if console {
		writer = zerolog.ConsoleWriter{Out: writer, TimeFormat: time.Kitchen}
	}

	l := zerolog.New(writer).Level(level).With().Timestamp().Logger()

	mu.Lock()
	base = l
	mu.Unlock()
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Base returns the configured base logger instance.
func Base() *zerolog.Logger {
	mu.RLock()
	l := base
	mu.RUnlock()
	return &l
}

// WithComponent returns a child logger annotated with the given component name.
func WithComponent(component string) *zerolog.Logger {
	l := Base().With().Str("component", component).Logger()
	return &l
}

// Derive attaches arbitrary fields to a child logger using the provided builder function.
func Derive(build func(*zerolog.Context)) *zerolog.Logger {
	ctx := Base().With()
	if build != nil {
		build(&ctx)
	}
	l := ctx.Logger()
	return &l
}

func init() {
	Configure(Config{})
}
