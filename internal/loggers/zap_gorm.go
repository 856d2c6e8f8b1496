package loggers

import (
	"context"
	"errors"
	"time"

	"identity-server/configs"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ZapGormLogger adapts the process zap logger to gorm's logger.Interface.
type ZapGormLogger struct {
	level         logger.LogLevel
	slowThreshold time.Duration
	skipNotFound  bool
}

func NewZapGormLogger(level logger.LogLevel, slowThreshold time.Duration, skipNotFound bool) *ZapGormLogger {
	return &ZapGormLogger{
		level:         level,
		slowThreshold: slowThreshold,
		skipNotFound:  skipNotFound,
	}
}

func (l *ZapGormLogger) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level
	return &clone
}

func (l *ZapGormLogger) Info(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Info {
		configs.Logger.Sugar().Infof(msg, args...)
	}
}

func (l *ZapGormLogger) Warn(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Warn {
		configs.Logger.Sugar().Warnf(msg, args...)
	}
}

func (l *ZapGormLogger) Error(_ context.Context, msg string, args ...interface{}) {
	if l.level >= logger.Error {
		configs.Logger.Sugar().Errorf(msg, args...)
	}
}

func (l *ZapGormLogger) Trace(_ context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	sql, rows := fc()

	switch {
	case err != nil && l.level >= logger.Error && !(l.skipNotFound && errors.Is(err, gorm.ErrRecordNotFound)):
		configs.Logger.Error("gorm query failed",
			zap.Error(err),
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
		)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.level >= logger.Warn:
		configs.Logger.Warn("gorm slow query",
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
		)
	case l.level >= logger.Info:
		configs.Logger.Debug("gorm query",
			zap.String("sql", sql),
			zap.Int64("rows", rows),
			zap.Duration("elapsed", elapsed),
		)
	}
}
