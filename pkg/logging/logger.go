// Package logging writes session-scoped structured logs for the faf
// tools. Every command in a session appends to the same file under
// ~/.faf/logs, so a multi-step workflow leaves one transcript.
package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Logger binds a slog.Logger to the session log file for one component.
type Logger struct {
	sessionID string
	component string
	file      *os.File
	slogger   *slog.Logger
	logPath   string
	closeOnce sync.Once
}

var (
	// Global session ID for the current execution
	sessionID     string
	sessionIDOnce sync.Once

	// logDir is the directory where log files are stored
	logDir string

	// initOnce ensures directory initialization happens once
	initOnce sync.Once

	// initErr stores any error from directory initialization
	initErr error

	// level is shared by all handlers so debug can be toggled process-wide
	level = new(slog.LevelVar)
)

// getSessionID returns or creates the session ID for this execution
func getSessionID() string {
	sessionIDOnce.Do(func() {
		sessionID = uuid.New().String()
	})
	return sessionID
}

// initLogDirectory ensures the log directory exists
func initLogDirectory() error {
	initOnce.Do(func() {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			initErr = fmt.Errorf("logging: resolve home directory: %w", err)
			return
		}

		logDir = filepath.Join(homeDir, ".faf", "logs")
		if err := os.MkdirAll(logDir, 0750); err != nil {
			initErr = fmt.Errorf("logging: create log directory: %w", err)
			return
		}
	})
	return initErr
}

// SetDebug toggles debug-level output for every logger in the process.
func SetDebug(on bool) {
	if on {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}

// NewLogger creates a logger for a specific component. It appends to
// ~/.faf/logs/<session-id>-faf.log so multiple components in one run
// share a file.
//
// If the log directory or file cannot be created, it returns a fallback
// logger that writes to stderr along with the error. Callers can check
// the error to detect fallback mode.
func NewLogger(component string) (*Logger, error) {
	if err := initLogDirectory(); err != nil {
		return newFallbackLogger(component), err
	}

	sessID := getSessionID()
	logPath := filepath.Join(logDir, fmt.Sprintf("%s-faf.log", sessID))

	// Open in append mode; multiple components write to the same file.
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return newFallbackLogger(component), fmt.Errorf("logging: open log file: %w", err)
	}

	handler := slog.NewTextHandler(file, &slog.HandlerOptions{Level: level})
	return &Logger{
		sessionID: sessID,
		component: component,
		file:      file,
		slogger:   slog.New(handler).With("component", component),
		logPath:   logPath,
	}, nil
}

// newFallbackLogger creates a logger that writes to stderr when file
// logging is unavailable
func newFallbackLogger(component string) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{
		sessionID: getSessionID(),
		component: component,
		file:      nil, // no file, using stderr
		slogger:   slog.New(handler).With("component", component),
		logPath:   "",
	}
}

// Install makes this logger the process default so library packages
// that log through log/slog write into the session file.
func (l *Logger) Install() {
	slog.SetDefault(l.slogger)
}

// Debug logs a debug-level message with key-value attributes.
func (l *Logger) Debug(msg string, args ...any) { l.slogger.Debug(msg, args...) }

// Info logs an info-level message with key-value attributes.
func (l *Logger) Info(msg string, args ...any) { l.slogger.Info(msg, args...) }

// Warn logs a warning-level message with key-value attributes.
func (l *Logger) Warn(msg string, args ...any) { l.slogger.Warn(msg, args...) }

// Error logs an error-level message with key-value attributes.
func (l *Logger) Error(msg string, args ...any) { l.slogger.Error(msg, args...) }

// SessionID returns the current session ID
func (l *Logger) SessionID() string {
	return l.sessionID
}

// LogPath returns the path to the log file, or an empty string in
// fallback mode
func (l *Logger) LogPath() string {
	return l.logPath
}

// Close closes the log file. Safe to call multiple times.
func (l *Logger) Close() error {
	var err error
	l.closeOnce.Do(func() {
		if l.file != nil {
			err = l.file.Close()
		}
	})
	return err
}

// GetSessionID returns the current global session ID
func GetSessionID() string {
	return getSessionID()
}

// GetLogDirectory returns the directory where logs are stored
func GetLogDirectory() (string, error) {
	if err := initLogDirectory(); err != nil {
		return "", err
	}
	return logDir, nil
}
