package pubsub

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/flexprice/payment-notifier/internal/logger"
)

// loggerAdapter routes watermill logs into the service logger
type loggerAdapter struct {
	logger *logger.Logger
	fields watermill.LogFields
}

// NewLoggerAdapter wraps logger as a watermill.LoggerAdapter
func NewLoggerAdapter(logger *logger.Logger) watermill.LoggerAdapter {
	return &loggerAdapter{logger: logger}
}

func (a *loggerAdapter) keyvals(fields watermill.LogFields) []interface{} {
	merged := a.fields.Add(fields)
	kv := make([]interface{}, 0, len(merged)*2)
	for k, v := range merged {
		kv = append(kv, k, v)
	}
	return kv
}

func (a *loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	a.logger.Errorw(msg, append(a.keyvals(fields), "error", err)...)
}

func (a *loggerAdapter) Info(msg string, fields watermill.LogFields) {
	a.logger.Infow(msg, a.keyvals(fields)...)
}

func (a *loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	a.logger.Debugw(msg, a.keyvals(fields)...)
}

// Trace is too chatty for the service log, it goes to debug
func (a *loggerAdapter) Trace(msg string, fields watermill.LogFields) {
	a.logger.Debugw(msg, a.keyvals(fields)...)
}

func (a *loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &loggerAdapter{
		logger: a.logger,
		fields: a.fields.Add(fields),
	}
}
