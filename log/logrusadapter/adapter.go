// Package logrusadapter provides a logger that writes to a github.com/sirupsen/logrus.Logger.
package logrusadapter

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/vireodb/pgc"
)

type Logger struct {
	l logrus.FieldLogger
}

func NewLogger(l logrus.FieldLogger) *Logger {
	return &Logger{l: l}
}

func (l *Logger) Log(ctx context.Context, level pgc.LogLevel, msg string, data map[string]interface{}) {
	var logger logrus.FieldLogger
	if data != nil {
		logger = l.l.WithFields(data)
	} else {
		logger = l.l
	}

	switch level {
	case pgc.LogLevelTrace:
		logger.WithField("PGC_LOG_LEVEL", level).Debug(msg)
	case pgc.LogLevelDebug:
		logger.Debug(msg)
	case pgc.LogLevelInfo:
		logger.Info(msg)
	case pgc.LogLevelWarn:
		logger.Warn(msg)
	case pgc.LogLevelError:
		logger.Error(msg)
	default:
		logger.WithField("INVALID_PGC_LOG_LEVEL", level).Error(msg)
	}
}
