// Package zapadapter provides a logger that writes to a go.uber.org/zap.Logger.
package zapadapter

import (
	"context"

	"github.com/vireodb/pgc"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	logger *zap.Logger
}

func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger.WithOptions(zap.AddCallerSkip(1))}
}

func (pl *Logger) Log(ctx context.Context, level pgc.LogLevel, msg string, data map[string]interface{}) {
	fields := make([]zapcore.Field, len(data))
	i := 0
	for k, v := range data {
		fields[i] = zap.Any(k, v)
		i++
	}

	switch level {
	case pgc.LogLevelTrace:
		pl.logger.Debug(msg, append(fields, zap.Stringer("PGC_LOG_LEVEL", level))...)
	case pgc.LogLevelDebug:
		pl.logger.Debug(msg, fields...)
	case pgc.LogLevelInfo:
		pl.logger.Info(msg, fields...)
	case pgc.LogLevelWarn:
		pl.logger.Warn(msg, fields...)
	case pgc.LogLevelError:
		pl.logger.Error(msg, fields...)
	default:
		pl.logger.Error(msg, append(fields, zap.Stringer("PGC_LOG_LEVEL", level))...)
	}
}
