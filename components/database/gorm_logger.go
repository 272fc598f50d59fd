package database

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cansoftinc/vaadin-on-kotlin/components/logging"
)

// gormLogger routes gorm output into the logging component.
type gormLogger struct {
	logLevel      logger.LogLevel
	slowThreshold time.Duration
}

func newGormLogger(cfg *Config) logger.Interface {
	lvl := logger.Warn
	slow := 200 * time.Millisecond
	if cfg != nil {
		if cfg.LogLevel != "" {
			switch strings.ToLower(cfg.LogLevel) {
			case "silent":
				lvl = logger.Silent
			case "error":
				lvl = logger.Error
			case "warn", "warning":
				lvl = logger.Warn
			case "info", "debug":
				lvl = logger.Info
			}
		}
		if cfg.SlowThreshold > 0 {
			slow = cfg.SlowThreshold
		}
	}
	return &gormLogger{logLevel: lvl, slowThreshold: slow}
}

func (l *gormLogger) LogMode(level logger.LogLevel) logger.Interface {
	nl := *l
	nl.logLevel = level
	return &nl
}

func (l *gormLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		logging.Infof(ctx, "[gorm] "+msg, data...)
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		logging.Warnf(ctx, "[gorm] "+msg, data...)
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		logging.Errorf(ctx, "[gorm] "+msg, data...)
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.logLevel <= logger.Silent {
		return
	}
	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.logLevel >= logger.Error:
		sqlStr, rows := fc()
		logging.Errorf(ctx, "[gorm] error elapsed=%s rows=%d sql=%s err=%v", elapsed, rows, sqlStr, err)
	case l.slowThreshold > 0 && elapsed > l.slowThreshold && l.logLevel >= logger.Warn:
		sqlStr, rows := fc()
		logging.Warnf(ctx, "[gorm] slow elapsed=%s threshold=%s rows=%d sql=%s", elapsed, l.slowThreshold, rows, sqlStr)
	case l.logLevel >= logger.Info:
		sqlStr, rows := fc()
		logging.Debugf(ctx, "[gorm] elapsed=%s rows=%d sql=%s", elapsed, rows, sqlStr)
	}
}
