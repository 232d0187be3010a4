package logging

import (
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
)

// LogFields represents structured logging key/value pairs.
type LogFields map[string]any

// ServiceLogger is the logging contract shared by the producer, consumer,
// inbound router and orchestration. Transports and the Watermill router get
// the same sink through NewWatermillAdapter.
type ServiceLogger interface {
	With(fields LogFields) ServiceLogger
	Debug(msg string, fields LogFields)
	Info(msg string, fields LogFields)
	Error(msg string, err error, fields LogFields)
	Trace(msg string, fields LogFields)
}

// slogLevels keeps Watermill's trace level distinct from debug.
var slogLevels = map[slog.Level]slog.Level{
	watermill.LevelTrace: watermill.LevelTrace,
	slog.LevelDebug:      slog.LevelDebug,
	slog.LevelInfo:       slog.LevelInfo,
	slog.LevelWarn:       slog.LevelWarn,
	slog.LevelError:      slog.LevelError,
}

// NewSlogServiceLogger wraps log, or slog.Default when log is nil.
func NewSlogServiceLogger(log *slog.Logger) ServiceLogger {
	if log == nil {
		log = slog.Default()
	}
	return &wmLogger{inner: watermill.NewSlogLoggerWithLevelMapping(log, slogLevels)}
}

// wmLogger is a ServiceLogger backed by a Watermill adapter.
type wmLogger struct {
	inner watermill.LoggerAdapter
}

func (w *wmLogger) With(fields LogFields) ServiceLogger {
	if len(fields) == 0 {
		return w
	}
	return &wmLogger{inner: w.inner.With(watermill.LogFields(fields))}
}

func (w *wmLogger) Debug(msg string, fields LogFields) { w.inner.Debug(msg, watermill.LogFields(fields)) }
func (w *wmLogger) Info(msg string, fields LogFields)  { w.inner.Info(msg, watermill.LogFields(fields)) }
func (w *wmLogger) Trace(msg string, fields LogFields) { w.inner.Trace(msg, watermill.LogFields(fields)) }

func (w *wmLogger) Error(msg string, err error, fields LogFields) {
	w.inner.Error(msg, err, watermill.LogFields(fields))
}

// NewWatermillAdapter hands log to Watermill. A slog-backed logger is
// unwrapped instead of adapted twice; nil yields a no-op adapter.
func NewWatermillAdapter(log ServiceLogger) watermill.LoggerAdapter {
	switch l := log.(type) {
	case nil:
		return watermill.NopLogger{}
	case *wmLogger:
		return l.inner
	default:
		return &adapter{base: log}
	}
}

type adapter struct {
	base ServiceLogger
}

func (a *adapter) Error(msg string, err error, fields watermill.LogFields) {
	a.base.Error(msg, err, LogFields(fields))
}

func (a *adapter) Info(msg string, fields watermill.LogFields)  { a.base.Info(msg, LogFields(fields)) }
func (a *adapter) Debug(msg string, fields watermill.LogFields) { a.base.Debug(msg, LogFields(fields)) }
func (a *adapter) Trace(msg string, fields watermill.LogFields) { a.base.Trace(msg, LogFields(fields)) }

func (a *adapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &adapter{base: a.base.With(LogFields(fields))}
}
