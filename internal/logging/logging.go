// Package logging owns the process-wide structured logger. Records go to a JSON log
// file; with debug enabled a human-readable copy is also written to stderr.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	mu      sync.Mutex
	logFile *os.File
	logger  = zerolog.Nop()
)

// Init (re)configures the logger. An empty logPath keeps file logging disabled.
func Init(logPath string, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}

	var writers []io.Writer
	if debug {
		writers = append(writers, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
	}

	if logPath != "" {
		if dir := filepath.Dir(logPath); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return err
			}
		}
		file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		logFile = file
		writers = append(writers, logFile)
	}

	if len(writers) == 0 {
		logger = zerolog.Nop()
		return nil
	}

	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	logger = zerolog.New(zerolog.MultiLevelWriter(writers...)).Level(level).With().Timestamp().Logger()
	return nil
}

// Close flushes and releases the log file.
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	logger = zerolog.Nop()
	if logFile == nil {
		return nil
	}
	err := logFile.Close()
	logFile = nil
	return err
}

// Logger returns the current logger.
func Logger() *zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	l := logger
	return &l
}

// LogEvent records a free-form informational message.
func LogEvent(format string, args ...any) {
	Logger().Info().Msg(fmt.Sprintf(format, args...))
}

// LogInvocation records the outcome of a single model invocation.
func LogInvocation(model, promptID string, success bool, elapsedSeconds float64, errText string) {
	l := Logger()
	event := l.Info()
	if !success {
		event = l.Warn().Str("error", strings.TrimSpace(errText))
	}
	event.
		Str("model", valueOrUnknown(model)).
		Str("prompt_id", valueOrUnknown(promptID)).
		Bool("success", success).
		Float64("elapsed_seconds", elapsedSeconds).
		Msg("invocation finished")
}

func valueOrUnknown(v string) string {
	if v = strings.TrimSpace(v); v == "" {
		return "unknown"
	}
	return v
}
