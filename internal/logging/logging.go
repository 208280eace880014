// Package logging wraps charmbracelet/log with the level handling personamcp
// needs: stdout belongs to the MCP stdio transport, so records only ever go
// to stderr, a debug file or a caller-supplied writer.
package logging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

const (
	prefix       = "personamcp"
	debugLogFile = "personamcp.log"
)

type AppLogger struct {
	logger *log.Logger
	debug  bool
}

var (
	defaultLogger *AppLogger
	once          sync.Once
)

// GetDefault returns the process-wide logger, built on first use.
func GetDefault() *AppLogger {
	once.Do(func() {
		defaultLogger = NewAppLogger()
	})
	return defaultLogger
}

// Info logs through the default logger.
func Info(msg string, keyvals ...any) {
	GetDefault().Info(msg, keyvals...)
}

// Debug logs through the default logger.
func Debug(msg string, keyvals ...any) {
	GetDefault().Debug(msg, keyvals...)
}

// NewAppLogger builds the process logger.
//
// With DEBUG set, debug output goes to personamcp.log in the working
// directory (truncated per run). Otherwise warnings and errors go to stderr.
// If the debug file cannot be created the logger falls back to stderr at
// debug level.
func NewAppLogger() *AppLogger {
	if os.Getenv("DEBUG") == "" {
		logger := log.NewWithOptions(os.Stderr, log.Options{
			ReportTimestamp: true,
			TimeFormat:      time.RFC3339,
			Prefix:          prefix,
		})
		logger.SetLevel(log.WarnLevel)
		return &AppLogger{logger: logger}
	}

	w, path, err := openDebugFile()
	if err != nil {
		w = os.Stderr
	}
	logger := log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
		Prefix:          prefix,
	})
	logger.SetLevel(log.DebugLevel)

	if err != nil {
		logger.Warn("Debug log file unavailable, logging to stderr", "error", err)
	} else {
		logger.Info("Debug logging enabled", "log_file", path)
	}
	return &AppLogger{logger: logger, debug: true}
}

func openDebugFile() (io.Writer, string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get working directory: %w", err)
	}
	path := filepath.Join(cwd, debugLogFile)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create debug log file: %w", err)
	}
	return f, path, nil
}

// NewCLILogger returns a logger for interactive commands: info and above to w.
func NewCLILogger(w io.Writer) *AppLogger {
	logger := log.NewWithOptions(w, log.Options{Prefix: prefix})
	logger.SetLevel(log.InfoLevel)
	return &AppLogger{logger: logger}
}

// NewTestLogger returns a debug-level logger writing to the returned buffer.
func NewTestLogger() (*AppLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Prefix: "Test"})
	logger.SetLevel(log.DebugLevel)
	return &AppLogger{logger: logger, debug: true}, &buf
}

// With returns a child logger that adds keyvals to every record.
func (al *AppLogger) With(keyvals ...any) *AppLogger {
	return &AppLogger{logger: al.logger.With(keyvals...), debug: al.debug}
}

// SetLevel overrides the level chosen at construction ("debug", "info", "warn", "error").
func (al *AppLogger) SetLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	al.logger.SetLevel(lvl)
	al.debug = lvl == log.DebugLevel
	return nil
}

// IsDebug reports whether debug records are written.
func (al *AppLogger) IsDebug() bool {
	return al.debug
}

func (al *AppLogger) Info(msg string, keyvals ...any) {
	al.logger.Info(msg, keyvals...)
}

func (al *AppLogger) Warn(msg string, keyvals ...any) {
	al.logger.Warn(msg, keyvals...)
}

func (al *AppLogger) Error(msg string, keyvals ...any) {
	al.logger.Error(msg, keyvals...)
}

func (al *AppLogger) Debug(msg string, keyvals ...any) {
	if al.debug {
		al.logger.Debug(msg, keyvals...)
	}
}

// LogPerformance records how long operation took (debug only).
func (al *AppLogger) LogPerformance(operation string, start time.Time) {
	if al.debug {
		al.logger.Debug("Performance", "operation", operation, "duration", time.Since(start))
	}
}

// LogToolCall records one dispatched MCP call (debug only).
func (al *AppLogger) LogToolCall(tool string, start time.Time, err error) {
	if !al.debug {
		return
	}
	keyvals := []any{"tool", tool, "duration", time.Since(start)}
	if err != nil {
		keyvals = append(keyvals, "error", err)
	}
	al.logger.Debug("Tool call", keyvals...)
}
