// Package logging builds the slog logger shared by the harness: text on
// stderr, plus JSON lines in a file when one is configured.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	slogmulti "github.com/samber/slog-multi"
)

// Debug levels accepted by --debug-level. Anything above zero turns on debug
// records; 20 also traces the scraper token by token.
const (
	LevelQuiet = 0
	LevelDebug = 10
	LevelTrace = 20
)

// Options configures New.
type Options struct {
	Stderr     io.Writer // defaults to os.Stderr
	File       string    // JSON log file, optional
	DebugLevel int
}

// New returns the logger and a function closing the log file.
func New(opts Options) (*slog.Logger, func() error, error) {
	level := slog.LevelWarn
	if opts.DebugLevel > LevelQuiet {
		level = slog.LevelDebug
	}
	stderr := opts.Stderr
	if stderr == nil {
		stderr = os.Stderr
	}

	handlers := []slog.Handler{
		slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}),
	}
	closer := func() error { return nil }

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
		closer = f.Close
	}

	return slog.New(slogmulti.Fanout(handlers...)), closer, nil
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
