// Package logger wraps zerolog behind a process-wide activity log.
// Every notable step of a run carries a marker, a short code such as
// SEARCH_SUCCESS or EXPORT_DONE that keeps the log file grep-able.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	defaultLogger zerolog.Logger
	once          sync.Once
)

// Init configures the default logger once. It writes human readable
// lines to stderr and, when logDir is non-empty, JSON lines to
// activity.log inside that directory. Unknown level names fall back to
// info.
func Init(level, logDir string) {
	once.Do(func() {
		parsed, err := zerolog.ParseLevel(level)
		if err != nil || parsed == zerolog.NoLevel {
			parsed = zerolog.InfoLevel
		}

		console := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		writers := []io.Writer{console}

		if logDir != "" {
			if err := os.MkdirAll(logDir, 0o755); err == nil {
				file, err := os.OpenFile(filepath.Join(logDir, "activity.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
				if err == nil {
					writers = append(writers, file)
				}
			}
		}

		defaultLogger = zerolog.New(zerolog.MultiLevelWriter(writers...)).
			Level(parsed).
			With().
			Timestamp().
			Logger()
	})
}

// Get returns the initialized default logger, initializing it with
// defaults when Init was never called.
func Get() zerolog.Logger {
	Init("", "")
	return defaultLogger
}

// Event records a marker event with structured fields.
func Event(marker, msg string, fields map[string]interface{}) {
	l := Get()
	l.Info().Str("marker", marker).Fields(fields).Msg(msg)
}

// Exception records an error under a marker with contextual fields.
func Exception(marker, msg string, err error, fields map[string]interface{}) {
	l := Get()
	l.Error().Str("marker", marker).Err(err).Fields(fields).Msg(msg)
}

// Debug logs a debug message.
func Debug(msg string, fields map[string]interface{}) {
	l := Get()
	l.Debug().Fields(fields).Msg(msg)
}

// Info logs an informational message.
func Info(msg string, fields map[string]interface{}) {
	l := Get()
	l.Info().Fields(fields).Msg(msg)
}

// Warn logs a warning.
func Warn(msg string, fields map[string]interface{}) {
	l := Get()
	l.Warn().Fields(fields).Msg(msg)
}

// Error logs an error message.
func Error(msg string, err error, fields map[string]interface{}) {
	l := Get()
	l.Error().Err(err).Fields(fields).Msg(msg)
}
