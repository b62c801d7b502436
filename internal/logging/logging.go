// Package logging configures the application's structured and human-readable loggers.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/forenstiq/forenstiq-go/internal/conf"
	"gopkg.in/natefinch/lumberjack.v2"
)

var structuredLogger *slog.Logger
var humanReadableLogger *slog.Logger

var structuredLevel = new(slog.LevelVar)
var humanReadableLevel = new(slog.LevelVar)

const (
	LevelTrace = slog.Level(-8)
	LevelFatal = slog.Level(12)
)

var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelFatal: "FATAL",
}

// replaceLevelNames maps the custom TRACE and FATAL levels to their labels.
func replaceLevelNames(groups []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		level := a.Value.Any().(slog.Level)
		levelLabel, exists := levelNames[level]
		if !exists {
			levelLabel = level.String()
		}
		a.Value = slog.StringValue(levelLabel)
	}
	return a
}

// Init initializes the logging system with structured and human-readable loggers.
// Structured logs are JSON on stdout, human-readable logs are text on stderr.
func Init() {
	structuredLevel.Set(slog.LevelDebug)
	humanReadableLevel.Set(slog.LevelInfo)
	setOutput(os.Stdout, os.Stderr)
}

// SetLevel sets the minimum logging level for both loggers.
func SetLevel(level slog.Level) {
	structuredLevel.Set(level)
	humanReadableLevel.Set(level)
}

// SetOutput redirects logger output, e.g. to capture logs in tests.
func SetOutput(structuredOutput, humanReadableOutput io.Writer) {
	setOutput(structuredOutput, humanReadableOutput)
}

func setOutput(structuredOutput, humanReadableOutput io.Writer) {
	structuredLogger = slog.New(slog.NewJSONHandler(structuredOutput, &slog.HandlerOptions{
		Level:       structuredLevel,
		ReplaceAttr: replaceLevelNames,
	}))

	humanReadableLogger = slog.New(slog.NewTextHandler(humanReadableOutput, &slog.HandlerOptions{
		Level:       humanReadableLevel,
		ReplaceAttr: replaceLevelNames,
	}))

	slog.SetDefault(structuredLogger)
}

// Structured returns the globally configured structured (JSON) logger.
// Returns nil if Init() has not been called.
func Structured() *slog.Logger {
	return structuredLogger
}

// HumanReadable returns the globally configured human-readable (Text) logger.
// Returns nil if Init() has not been called.
func HumanReadable() *slog.Logger {
	return humanReadableLogger
}

// ForService creates a new logger instance with the 'service' attribute added.
// It uses the global structured logger as the base, falling back to the
// default slog logger when Init has not been called.
func ForService(serviceName string) *slog.Logger {
	if structuredLogger == nil {
		return slog.Default().With("service", serviceName)
	}
	return structuredLogger.With("service", serviceName)
}

// --- Convenience functions using the default logger ---

// Debug logs a debug message using the default slog logger.
func Debug(msg string, args ...any) {
	slog.Debug(msg, args...)
}

// Info logs an info message using the default slog logger.
func Info(msg string, args ...any) {
	slog.Info(msg, args...)
}

// Warn logs a warning message using the default slog logger.
func Warn(msg string, args ...any) {
	slog.Warn(msg, args...)
}

// Error logs an error message using the default slog logger.
func Error(msg string, args ...any) {
	slog.Error(msg, args...)
}

// Fatal logs a fatal message using the custom Fatal level and then exits.
func Fatal(msg string, args ...any) {
	slog.Log(context.TODO(), LevelFatal, msg, args...)
	os.Exit(1)
}

// Trace logs a trace message using the custom Trace level.
func Trace(msg string, args ...any) {
	slog.Log(context.TODO(), LevelTrace, msg, args...)
}

// InitFileOutput routes the structured logger to a rotated log file per the
// main.log configuration block, keeping human-readable output on stderr.
// When file logging is disabled it is a no-op. The returned function closes
// the underlying writer.
func InitFileOutput(logConf *conf.LogConfig) (func() error, error) {
	if logConf == nil || !logConf.Enabled || logConf.Path == "" {
		return func() error { return nil }, nil
	}

	logWriter, err := newRotatingWriter(logConf.Path, logConf)
	if err != nil {
		return nil, err
	}

	setOutput(logWriter, os.Stderr)
	return logWriter.Close, nil
}

// NewFileLogger creates a new slog.Logger writing JSON logs to the given file,
// rotated by lumberjack according to logConf. It includes a 'service' attribute
// in all logs and returns the logger plus a function closing the underlying writer.
func NewFileLogger(filePath, serviceName string, level slog.Level, logConf *conf.LogConfig) (*slog.Logger, func() error, error) {
	logWriter, err := newRotatingWriter(filePath, logConf)
	if err != nil {
		return nil, nil, err
	}

	fileHandler := slog.NewJSONHandler(logWriter, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: replaceLevelNames,
	})

	logger := slog.New(fileHandler).With("service", serviceName)

	closeFunc := func() error {
		return logWriter.Close()
	}

	return logger, closeFunc, nil
}

// newRotatingWriter creates a lumberjack writer for the given file, with
// rotation behavior derived from logConf.
func newRotatingWriter(filePath string, logConf *conf.LogConfig) (*lumberjack.Logger, error) {
	// lumberjack doesn't create directories
	logDir := filepath.Dir(filePath)
	if logDir != "." {
		if err := os.MkdirAll(logDir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}
	}

	logWriter := &lumberjack.Logger{
		Filename: filePath,
	}

	maxSizeMB := 100
	maxBackups := 3
	maxAge := 28 // days

	if logConf != nil {
		configMaxSizeMB := int(logConf.MaxSize / (1024 * 1024))
		if configMaxSizeMB > 0 {
			maxSizeMB = configMaxSizeMB
		}

		switch logConf.Rotation {
		case conf.RotationDaily:
			maxAge = 1
			maxBackups = 30
		case conf.RotationWeekly:
			maxAge = 7
			maxBackups = 4
		case conf.RotationSize:
			// size-based rotation uses maxSizeMB derived above
		default:
			slog.Warn("Unknown log rotation type in config, using size-based defaults", "configuredType", logConf.Rotation)
		}
	}

	logWriter.MaxSize = maxSizeMB
	logWriter.MaxBackups = maxBackups
	logWriter.MaxAge = maxAge

	return logWriter, nil
}
