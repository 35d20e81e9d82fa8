// Package log15adapter provides a logger that writes to a
// gopkg.in/inconshreveable/log15.v2 Logger.
package log15adapter

import (
	"context"

	"github.com/vireodb/pgc"
	log "gopkg.in/inconshreveable/log15.v2"
)

// Logger is a pgc.Logger that writes to a log15.Logger.
type Logger struct {
	l log.Logger
}

func NewLogger(l log.Logger) *Logger {
	return &Logger{l: l}
}

func (l *Logger) Log(ctx context.Context, level pgc.LogLevel, msg string, data map[string]interface{}) {
	logArgs := make([]interface{}, 0, len(data)*2)
	for k, v := range data {
		logArgs = append(logArgs, k, v)
	}

	switch level {
	case pgc.LogLevelTrace:
		l.l.Debug(msg, append(logArgs, "PGC_LOG_LEVEL", level)...)
	case pgc.LogLevelDebug:
		l.l.Debug(msg, logArgs...)
	case pgc.LogLevelInfo:
		l.l.Info(msg, logArgs...)
	case pgc.LogLevelWarn:
		l.l.Warn(msg, logArgs...)
	case pgc.LogLevelError:
		l.l.Error(msg, logArgs...)
	default:
		l.l.Error(msg, append(logArgs, "INVALID_PGC_LOG_LEVEL", level)...)
	}
}
