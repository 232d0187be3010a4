package pulsar

import (
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	plog "github.com/apache/pulsar-client-go/pulsar/log"
)

// newClientLogger routes the pulsar client's internal logging through the
// watermill logger instead of the client's default logrus instance.
func newClientLogger(logger watermill.LoggerAdapter) plog.Logger {
	if logger == nil {
		logger = watermill.NopLogger{}
	}
	return clientLogger{clientEntry{logger: logger}}
}

type clientLogger struct {
	clientEntry
}

func (l clientLogger) SubLogger(fields plog.Fields) plog.Logger {
	return clientLogger{l.withFields(fields)}
}

func (l clientLogger) WithFields(fields plog.Fields) plog.Entry {
	return l.withFields(fields)
}

func (l clientLogger) WithField(name string, value any) plog.Entry {
	return l.withFields(plog.Fields{name: value})
}

func (l clientLogger) WithError(err error) plog.Entry {
	return l.withFields(plog.Fields{"error": err})
}

type clientEntry struct {
	logger watermill.LoggerAdapter
}

func (e clientEntry) withFields(fields plog.Fields) clientEntry {
	return clientEntry{logger: e.logger.With(watermill.LogFields(fields))}
}

func (e clientEntry) WithFields(fields plog.Fields) plog.Entry {
	return e.withFields(fields)
}

func (e clientEntry) WithField(name string, value any) plog.Entry {
	return e.withFields(plog.Fields{name: value})
}

func (e clientEntry) Debug(args ...any) {
	e.logger.Debug(fmt.Sprint(args...), nil)
}

func (e clientEntry) Info(args ...any) {
	e.logger.Info(fmt.Sprint(args...), nil)
}

func (e clientEntry) Warn(args ...any) {
	e.logger.Info(fmt.Sprint(args...), watermill.LogFields{"pulsar_level": "warn"})
}

func (e clientEntry) Error(args ...any) {
	e.logger.Error(fmt.Sprint(args...), nil, nil)
}

func (e clientEntry) Debugf(format string, args ...any) {
	e.logger.Debug(fmt.Sprintf(format, args...), nil)
}

func (e clientEntry) Infof(format string, args ...any) {
	e.logger.Info(fmt.Sprintf(format, args...), nil)
}

func (e clientEntry) Warnf(format string, args ...any) {
	e.logger.Info(fmt.Sprintf(format, args...), watermill.LogFields{"pulsar_level": "warn"})
}

func (e clientEntry) Errorf(format string, args ...any) {
	e.logger.Error(fmt.Sprintf(format, args...), nil, nil)
}
