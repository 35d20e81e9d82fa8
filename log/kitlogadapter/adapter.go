// Package kitlogadapter provides a logger that writes to a github.com/go-kit/log.Logger.
package kitlogadapter

import (
	"context"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/vireodb/pgc"
)

type Logger struct {
	l log.Logger
}

func NewLogger(l log.Logger) *Logger {
	return &Logger{l: l}
}

func (l *Logger) Log(ctx context.Context, logLevel pgc.LogLevel, msg string, data map[string]interface{}) {
	logger := l.l
	for k, v := range data {
		logger = log.With(logger, k, v)
	}

	switch logLevel {
	case pgc.LogLevelTrace:
		level.Debug(logger).Log("PGC_LOG_LEVEL", logLevel, "msg", msg)
	case pgc.LogLevelDebug:
		level.Debug(logger).Log("msg", msg)
	case pgc.LogLevelInfo:
		level.Info(logger).Log("msg", msg)
	case pgc.LogLevelWarn:
		level.Warn(logger).Log("msg", msg)
	case pgc.LogLevelError:
		level.Error(logger).Log("msg", msg)
	default:
		logger.Log("INVALID_PGC_LOG_LEVEL", logLevel, "error", msg)
	}
}
