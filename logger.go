package neutronx

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging surface used throughout the engine and
// handed to modules/plugins via their context. It is a thin seam over
// *zap.Logger so embedders can supply their own zap logger without the
// engine caring how it is wired up.
type Logger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, fields ...zap.Field)
	With(fields ...zap.Field) Logger
}

type zapLogger struct {
	l *zap.Logger
}

func (z *zapLogger) Debug(msg string, fields ...zap.Field) { z.l.Debug(msg, fields...) }
func (z *zapLogger) Info(msg string, fields ...zap.Field)  { z.l.Info(msg, fields...) }
func (z *zapLogger) Warn(msg string, fields ...zap.Field)  { z.l.Warn(msg, fields...) }
func (z *zapLogger) Error(msg string, fields ...zap.Field) { z.l.Error(msg, fields...) }
func (z *zapLogger) With(fields ...zap.Field) Logger {
	return &zapLogger{l: z.l.With(fields...)}
}

// newLogger builds the default Logger for a Config: development-mode,
// console-encoded when DebugMode is set, JSON-encoded production config
// otherwise. Mirrors the teacher's habit of branching behavior off
// DebugMode (air.go's ErrorHandler does the same for stack traces).
func newLogger(debug bool) Logger {
	var cfg zap.Config
	if debug {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
		cfg.EncoderConfig.TimeKey = "time"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}

	return &zapLogger{l: l}
}

// noopLogger discards everything; used as a safe zero-value default before
// App.New installs the real logger, and in tests that fabricate values
// without a running App.
var noopLogger Logger = &zapLogger{l: zap.NewNop()}
