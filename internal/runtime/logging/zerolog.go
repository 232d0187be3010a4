package logging

import (
	"github.com/rs/zerolog"
)

// NewZerologServiceLogger wraps a zerolog.Logger. Combined with a
// zerolog.ConsoleWriter the message text is printed verbatim, which keeps the
// producer and consumer marker lines greppable in container logs.
func NewZerologServiceLogger(zl zerolog.Logger) ServiceLogger {
	return &zerologServiceLogger{zl: zl}
}

type zerologServiceLogger struct {
	zl zerolog.Logger
}

func (z *zerologServiceLogger) With(fields LogFields) ServiceLogger {
	if len(fields) == 0 {
		return z
	}
	return &zerologServiceLogger{zl: z.zl.With().Fields(map[string]any(fields)).Logger()}
}

func (z *zerologServiceLogger) Debug(msg string, fields LogFields) {
	withFields(z.zl.Debug(), fields).Msg(msg)
}

func (z *zerologServiceLogger) Info(msg string, fields LogFields) {
	withFields(z.zl.Info(), fields).Msg(msg)
}

func (z *zerologServiceLogger) Error(msg string, err error, fields LogFields) {
	withFields(z.zl.Error().Err(err), fields).Msg(msg)
}

func (z *zerologServiceLogger) Trace(msg string, fields LogFields) {
	withFields(z.zl.Trace(), fields).Msg(msg)
}

// withFields tolerates the nil *Event zerolog returns for disabled levels.
func withFields(e *zerolog.Event, fields LogFields) *zerolog.Event {
	if e == nil || len(fields) == 0 {
		return e
	}
	return e.Fields(map[string]any(fields))
}
