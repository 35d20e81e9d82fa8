// Package zerologadapter provides a logger that writes to a github.com/rs/zerolog.
package zerologadapter

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/vireodb/pgc"
)

type Logger struct {
	logger zerolog.Logger
}

// NewLogger accepts a zerolog.Logger as input and returns a new custom pgc
// logging facade as output.
func NewLogger(logger zerolog.Logger) *Logger {
	return &Logger{
		logger: logger.With().Str("module", "pgc").Logger(),
	}
}

func (pl *Logger) Log(ctx context.Context, level pgc.LogLevel, msg string, data map[string]interface{}) {
	var zlevel zerolog.Level
	switch level {
	case pgc.LogLevelNone:
		zlevel = zerolog.NoLevel
	case pgc.LogLevelError:
		zlevel = zerolog.ErrorLevel
	case pgc.LogLevelWarn:
		zlevel = zerolog.WarnLevel
	case pgc.LogLevelInfo:
		zlevel = zerolog.InfoLevel
	case pgc.LogLevelDebug:
		zlevel = zerolog.DebugLevel
	default:
		zlevel = zerolog.DebugLevel
	}

	pgclog := pl.logger.With().Fields(data).Logger()
	pgclog.WithLevel(zlevel).Msg(msg)
}
