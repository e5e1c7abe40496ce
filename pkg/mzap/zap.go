// Package mzap wires go.uber.org/zap, bridged through otelzap so every log
// line picks up the active trace/span id, behind the pkg/mlog.Logger
// interface.
package mzap

import (
	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vertexpay/core/pkg/mlog"
)

// ZapWithTraceLogger implements mlog.Logger on top of a zap.SugaredLogger
// that has been constructed with the otelzap core, so Info/Error/etc. calls
// automatically carry trace_id/span_id when invoked from a context that has
// an active span.
type ZapWithTraceLogger struct {
	sugar *zap.SugaredLogger
}

// InitializeLogger builds a production-shaped zap logger at the given level,
// bridged through otelzap, and returns it behind the mlog.Logger interface.
func InitializeLogger(level mlog.Level, serviceName string) (mlog.Logger, error) {
	zapLevel := toZapLevel(level)

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.InitialFields = map[string]any{"service": serviceName}

	base, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	bridged := base.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, otelzap.NewCore(serviceName))
	}))

	return &ZapWithTraceLogger{sugar: bridged.Sugar()}, nil
}

func toZapLevel(l mlog.Level) zapcore.Level {
	switch l {
	case mlog.DebugLevel:
		return zapcore.DebugLevel
	case mlog.WarnLevel:
		return zapcore.WarnLevel
	case mlog.ErrorLevel:
		return zapcore.ErrorLevel
	case mlog.FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *ZapWithTraceLogger) Info(args ...any)                  { l.sugar.Info(args...) }
func (l *ZapWithTraceLogger) Infof(format string, args ...any)   { l.sugar.Infof(format, args...) }
func (l *ZapWithTraceLogger) Infoln(args ...any)                 { l.sugar.Infoln(args...) }
func (l *ZapWithTraceLogger) Warn(args ...any)                   { l.sugar.Warn(args...) }
func (l *ZapWithTraceLogger) Warnf(format string, args ...any)   { l.sugar.Warnf(format, args...) }
func (l *ZapWithTraceLogger) Warnln(args ...any)                 { l.sugar.Warnln(args...) }
func (l *ZapWithTraceLogger) Error(args ...any)                  { l.sugar.Error(args...) }
func (l *ZapWithTraceLogger) Errorf(format string, args ...any)  { l.sugar.Errorf(format, args...) }
func (l *ZapWithTraceLogger) Errorln(args ...any)                { l.sugar.Errorln(args...) }
func (l *ZapWithTraceLogger) Debug(args ...any)                  { l.sugar.Debug(args...) }
func (l *ZapWithTraceLogger) Debugf(format string, args ...any)  { l.sugar.Debugf(format, args...) }
func (l *ZapWithTraceLogger) Debugln(args ...any)                { l.sugar.Debugln(args...) }
func (l *ZapWithTraceLogger) Fatal(args ...any)                  { l.sugar.Fatal(args...) }
func (l *ZapWithTraceLogger) Fatalf(format string, args ...any)  { l.sugar.Fatalf(format, args...) }
func (l *ZapWithTraceLogger) Fatalln(args ...any)                { l.sugar.Fatalln(args...) }

func (l *ZapWithTraceLogger) WithFields(fields ...any) mlog.Logger {
	return &ZapWithTraceLogger{sugar: l.sugar.With(fields...)}
}

func (l *ZapWithTraceLogger) Sync() error {
	return l.sugar.Sync()
}
