// Package logger provides the process-wide structured logger.
//
// The terminal belongs to the UI while the shell runs, so Configure is
// normally given a file; stderr is only used before the UI starts and in
// tests.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
)

// Logger is the global logger instance used throughout Aether.
var Logger *log.Logger

func init() {
	Logger = log.New(os.Stderr)
	Logger.SetLevel(log.InfoLevel)
}

// Configure rebuilds Logger for the given level and destination. An empty
// logFile keeps stderr.
func Configure(logLevel string, logFile string) (io.Closer, error) {
	var output io.Writer = os.Stderr
	var closer io.Closer = nopCloser{}

	if logFile != "" {
		if err := os.MkdirAll(filepath.Dir(logFile), 0o700); err != nil {
			return nil, err
		}
		file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, err
		}
		output = file
		closer = file
	}

	Logger = log.NewWithOptions(output, log.Options{
		ReportTimestamp: true,
		Level:           parseLogLevel(logLevel),
	})
	return closer, nil
}

// SetOutput points Logger at w, keeping the current level. Used by tests to
// capture or silence log lines.
func SetOutput(w io.Writer) {
	Logger.SetOutput(w)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func parseLogLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}

func Debug(msg interface{}, keyvals ...interface{}) {
	Logger.Debug(msg, keyvals...)
}

func Info(msg interface{}, keyvals ...interface{}) {
	Logger.Info(msg, keyvals...)
}

func Warn(msg interface{}, keyvals ...interface{}) {
	Logger.Warn(msg, keyvals...)
}

// Error logs an error message with optional key-value pairs.
func Error(msg interface{}, keyvals ...interface{}) {
	Logger.Error(msg, keyvals...)
}
