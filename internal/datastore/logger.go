package datastore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/forenstiq/forenstiq-go/internal/conf"
	"github.com/forenstiq/forenstiq-go/internal/errors"
	"github.com/forenstiq/forenstiq-go/internal/logging"
	gormlogger "gorm.io/gorm/logger"
)

// DefaultSlowQueryThreshold defines the duration after which a query is
// considered slow. One second accommodates recount queries over large cases
// while still surfacing queries that need an index.
const DefaultSlowQueryThreshold = 1 * time.Second

// storeLogPath is where the store's query log lands when file logging is
// enabled. Log files live under logs/ alongside the main log.
const storeLogPath = "logs/datastore.log"

// newStoreLogger creates a file-backed logger for the store when file
// logging is enabled, falling back to the shared service logger when it is
// not, or when the log file cannot be opened.
func newStoreLogger(logConf *conf.LogConfig, filePath string) (*slog.Logger, func() error) {
	noop := func() error { return nil }
	if logConf == nil || !logConf.Enabled {
		return logging.ForService("datastore"), noop
	}

	logger, closeFunc, err := logging.NewFileLogger(filePath, "datastore", slog.LevelInfo, logConf)
	if err != nil {
		slog.Warn("Failed to open datastore log file, using shared logger",
			"path", filePath,
			"error", err)
		return logging.ForService("datastore"), noop
	}
	return logger, closeFunc
}

// createGormLogger adapts the store's slog logger to GORM's logger interface.
func createGormLogger(logger *slog.Logger) gormlogger.Interface {
	return &gormSlogLogger{
		logger:        logger,
		slowThreshold: DefaultSlowQueryThreshold,
		level:         gormlogger.Warn,
	}
}

type gormSlogLogger struct {
	logger        *slog.Logger
	slowThreshold time.Duration
	level         gormlogger.LogLevel
}

func (l *gormSlogLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *gormSlogLogger) Info(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Info {
		l.logger.InfoContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *gormSlogLogger) Warn(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Warn {
		l.logger.WarnContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *gormSlogLogger) Error(ctx context.Context, msg string, data ...any) {
	if l.level >= gormlogger.Error {
		l.logger.ErrorContext(ctx, fmt.Sprintf(msg, data...))
	}
}

func (l *gormSlogLogger) Trace(ctx context.Context, begin time.Time, fc func() (sql string, rowsAffected int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && l.level >= gormlogger.Error && !errors.Is(err, gormlogger.ErrRecordNotFound):
		sql, rows := fc()
		l.logger.ErrorContext(ctx, "query failed",
			"error", err,
			"elapsed", elapsed,
			"rows", rows,
			"sql", sql)
	case l.slowThreshold != 0 && elapsed > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.logger.WarnContext(ctx, "slow query",
			"elapsed", elapsed,
			"threshold", l.slowThreshold,
			"rows", rows,
			"sql", sql)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.logger.DebugContext(ctx, "query",
			"elapsed", elapsed,
			"rows", rows,
			"sql", sql)
	}
}
