package store

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const maxLoggedSQL = 200

// queryLogger reports failed and slow statements through zap.
type queryLogger struct {
	log           *zap.Logger
	slowThreshold time.Duration
	level         gormlogger.LogLevel
}

func newQueryLogger(log *zap.Logger, slowThreshold time.Duration) *queryLogger {
	if slowThreshold == 0 {
		slowThreshold = 100 * time.Millisecond
	}
	return &queryLogger{log: log, slowThreshold: slowThreshold, level: gormlogger.Warn}
}

func (l *queryLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *queryLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		l.log.Sugar().Infof(msg, args...)
	}
}

func (l *queryLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		l.log.Sugar().Warnf(msg, args...)
	}
}

func (l *queryLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		l.log.Sugar().Errorf(msg, args...)
	}
}

func (l *queryLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	took := time.Since(begin)
	switch {
	// Not-found and constraint failures are ordinary results for the caller.
	case err != nil && l.level >= gormlogger.Error && !expected(err):
		sql, rows := fc()
		l.log.Error("query-failed",
			zap.String("sql", truncate(sql)),
			zap.Duration("took", took),
			zap.Int64("rows", rows),
			zap.Error(err),
		)
	case took > l.slowThreshold && l.level >= gormlogger.Warn:
		sql, rows := fc()
		l.log.Warn("slow-query",
			zap.String("sql", truncate(sql)),
			zap.Duration("took", took),
			zap.Int64("rows", rows),
		)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		l.log.Debug("query", zap.String("sql", truncate(sql)), zap.Duration("took", took), zap.Int64("rows", rows))
	}
}

func expected(err error) bool {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return true
	}
	classified := Classify(err)
	return errors.Is(classified, ErrConstraintViolation) || errors.Is(classified, ErrForeignKeyViolation)
}

func truncate(sql string) string {
	if len(sql) > maxLoggedSQL {
		return sql[:maxLoggedSQL] + "..."
	}
	return sql
}
