//nolint:goprintffuncname
package sql

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// loggerAdaptor routes gorm's logging through logrus.
type loggerAdaptor struct {
	Logger *logrus.Logger
	Config LoggerAdaptorConfig
	level  logger.LogLevel
}

type LoggerAdaptorConfig struct {
	SlowThreshold             time.Duration
	IgnoreRecordNotFoundError bool
}

//nolint:ireturn
func NewLoggerAdaptor(l *logrus.Logger, cfg LoggerAdaptorConfig) logger.Interface {
	return &loggerAdaptor{Logger: l, Config: cfg, level: logger.Info}
}

// LogMode returns a copy that drops everything below level. logrus still
// applies its own level on top.
//
//nolint:ireturn
func (l *loggerAdaptor) LogMode(level logger.LogLevel) logger.Interface {
	clone := *l
	clone.level = level

	return &clone
}

const (
	maximumCallerDepth int = 15
	minimumCallerDepth int = 4
)

// entry reports the first caller outside gorm.
func (l *loggerAdaptor) entry(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithContext(ctx).WithField("component", "gorm")

	pcs := make([]uintptr, maximumCallerDepth)
	depth := runtime.Callers(minimumCallerDepth, pcs)
	frames := runtime.CallersFrames(pcs[:depth])

	for f, again := frames.Next(); again; f, again = frames.Next() {
		if !strings.HasPrefix(f.Function, "gorm.io/") {
			return entry.WithField("caller", fmt.Sprintf("%s:%d", f.File, f.Line))
		}
	}

	return entry
}

func (l *loggerAdaptor) Info(ctx context.Context, format string, args ...interface{}) {
	if l.level >= logger.Info {
		l.entry(ctx).Infof(format, args...)
	}
}

func (l *loggerAdaptor) Warn(ctx context.Context, format string, args ...interface{}) {
	if l.level >= logger.Warn {
		l.entry(ctx).Warnf(format, args...)
	}
}

func (l *loggerAdaptor) Error(ctx context.Context, format string, args ...interface{}) {
	if l.level >= logger.Error {
		l.entry(ctx).Errorf(format, args...)
	}
}

const nanosecondsPerMillisecond = 1e6

func (l *loggerAdaptor) entryWithSQL(
	ctx context.Context,
	elapsed time.Duration,
	fc func() (sql string, rowsAffected int64),
) *logrus.Entry {
	sql, rows := fc()

	fields := logrus.Fields{
		"elapsed": fmt.Sprintf("%.3fms", float64(elapsed.Nanoseconds())/nanosecondsPerMillisecond),
		"rows":    rows,
		"sql":     sql,
	}
	if rows == -1 {
		fields["rows"] = "-"
	}

	return l.entry(ctx).WithFields(fields)
}

// Trace logs failed statements as errors, slow ones as warnings and the rest at debug level.
func (l *loggerAdaptor) Trace(
	ctx context.Context,
	begin time.Time,
	fc func() (sql string, rowsAffected int64),
	err error,
) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)

	switch {
	case err != nil &&
		l.level >= logger.Error &&
		l.Logger.IsLevelEnabled(logrus.ErrorLevel) &&
		(!errors.Is(err, gorm.ErrRecordNotFound) || !l.Config.IgnoreRecordNotFoundError):
		l.entryWithSQL(ctx, elapsed, fc).WithError(err).Error("SQL error")
	case l.Config.SlowThreshold != 0 &&
		elapsed > l.Config.SlowThreshold &&
		l.level >= logger.Warn &&
		l.Logger.IsLevelEnabled(logrus.WarnLevel):
		l.entryWithSQL(ctx, elapsed, fc).Warnf("SLOW SQL >= %v", l.Config.SlowThreshold)
	case l.level >= logger.Info && l.Logger.IsLevelEnabled(logrus.DebugLevel):
		l.entryWithSQL(ctx, elapsed, fc).Debug("SQL trace")
	}
}
