// Package logger wraps zap behind a small interface so the ingestion and
// export services depend on structured logging, not on a concrete backend.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Field is a structured log attribute. Construct them with the helpers in
// this package rather than importing zap directly.
type Field = zapcore.Field

// Logger is the logging surface used across the service.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
}

type zapLogger struct {
	logger *zap.Logger
}

func (l *zapLogger) Debug(msg string, fields ...Field) {
	l.logger.Debug(msg, fields...)
}

func (l *zapLogger) Info(msg string, fields ...Field) {
	l.logger.Info(msg, fields...)
}

func (l *zapLogger) Warn(msg string, fields ...Field) {
	l.logger.Warn(msg, fields...)
}

func (l *zapLogger) Error(msg string, fields ...Field) {
	l.logger.Error(msg, fields...)
}

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{logger: l.logger.With(fields...)}
}

func (l *zapLogger) Sync() error {
	return l.logger.Sync()
}

// NewLogger builds the process logger. Debug mode switches to a colored
// console encoder at debug level with sampling off; otherwise the standard
// JSON production config is used.
func NewLogger(debug bool) (Logger, error) {
	if !debug {
		z, err := zap.NewProduction()
		if err != nil {
			return nil, err
		}
		return &zapLogger{logger: z}, nil
	}

	config := zap.NewDevelopmentConfig()
	config.Encoding = "console"
	config.Development = true
	config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	config.Sampling = nil
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	z, err := config.Build(
		zap.AddCallerSkip(0),
		zap.AddStacktrace(zapcore.WarnLevel),
	)
	if err != nil {
		return nil, err
	}
	return &zapLogger{logger: z}, nil
}

// NewNopLogger discards everything. Used where a Logger is required but
// output is unwanted, mostly in tests.
func NewNopLogger() Logger {
	return &zapLogger{logger: zap.NewNop()}
}
