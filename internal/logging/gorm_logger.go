package logger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// slowQueryThreshold marks audit-trail writes worth a warning.
const slowQueryThreshold = 200 * time.Millisecond

// GormZapLogger routes GORM's logging through the application's zap logger
// so audit writes share one log stream with everything else.
type GormZapLogger struct {
	log   *zap.Logger
	level logger.LogLevel
}

func NewGormZapLogger(log *zap.Logger) *GormZapLogger {
	return &GormZapLogger{log: log, level: logger.Warn}
}

func (l *GormZapLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *GormZapLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		l.log.Info(fmt.Sprintf(msg, args...))
	}
}

func (l *GormZapLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		l.log.Warn(fmt.Sprintf(msg, args...))
	}
}

func (l *GormZapLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		l.log.Error(fmt.Sprintf(msg, args...))
	}
}

// Trace reports individual statements. Record-not-found is normal query
// traffic, not an error.
func (l *GormZapLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()
	fields := []zap.Field{
		zap.Duration("elapsed", elapsed),
		zap.Int64("rows", rows),
		zap.String("sql", sql),
	}

	switch {
	case err != nil && l.level >= logger.Error && !errors.Is(err, gorm.ErrRecordNotFound):
		l.log.Error("Query failed", append(fields, zap.Error(err))...)
	case elapsed > slowQueryThreshold && l.level >= logger.Warn:
		l.log.Warn("Slow query", fields...)
	case l.level >= logger.Info:
		l.log.Debug("Query", fields...)
	}
}
