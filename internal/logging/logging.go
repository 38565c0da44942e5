// Package logging builds the process logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// Options configures New.
type Options struct {
	// Level is the minimum level: debug, info, warn or error. Empty means info.
	Level string

	// Debug forces the debug level.
	Debug bool

	// Terminal receives text output. Nil disables it.
	Terminal io.Writer

	// File, if set, receives JSON records. It is opened for append.
	File string
}

// Logger is the process logger and the resources behind it.
type Logger struct {
	*slog.Logger

	// Level can be raised or lowered after creation.
	Level *slog.LevelVar

	file *os.File
}

// ParseLevel parses a level name.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return 0, fmt.Errorf("invalid log level: %q", s)
}

// New creates a logger fanning out to the terminal and the optional file.
func New(opts Options) (*Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	level := new(slog.LevelVar)
	level.Set(lvl)
	if opts.Debug {
		level.Set(slog.LevelDebug)
	}

	l := &Logger{Level: level}
	ho := &slog.HandlerOptions{Level: level}

	var handlers []slog.Handler
	if opts.Terminal != nil {
		handlers = append(handlers, slog.NewTextHandler(opts.Terminal, ho))
	}
	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		l.file = f
		handlers = append(handlers, slog.NewJSONHandler(f, ho))
	}

	l.Logger = slog.New(slogmulti.Fanout(handlers...))
	return l, nil
}

// Close closes the log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
