// Package logging builds the slog loggers handed to the panel and commands.
//
// In TUI mode the terminal belongs to bubbletea, so records go to a log
// file; one-shot commands log to stderr.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Mode selects where log records are written.
type Mode int

const (
	ModeCLI Mode = iota
	ModeTUI
)

const logFileName = "ttlpanel.log"

// ParseLevel maps a config string to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (supported: debug, info, warn, error)", level)
	}
}

// New returns a text logger writing to output.
func New(output io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level}))
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Setup creates the logger for the given mode. For ModeTUI the records are
// appended to path, or to ttlpanel.log inside stateDir when path is empty.
// The returned closer must be called on shutdown.
func Setup(mode Mode, level string, path, stateDir string) (*slog.Logger, io.Closer, error) {
	lvl, err := ParseLevel(level)
	if err != nil {
		return nil, nil, err
	}

	if mode == ModeCLI && path == "" {
		return New(os.Stderr, lvl).With("mode", "cli"), io.NopCloser(nil), nil
	}

	if path == "" {
		path = filepath.Join(stateDir, logFileName)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}

	modeName := "cli"
	if mode == ModeTUI {
		modeName = "tui"
	}
	return New(file, lvl).With("mode", modeName), file, nil
}
