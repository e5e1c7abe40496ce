// Package appcontext threads a logger and an OpenTelemetry tracer through
// context.Context, mirroring the teacher codebase's single-struct
// context-value convention rather than one context key per concern.
package appcontext

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/vertexpay/core/pkg/mlog"
)

type contextKey struct{}

type values struct {
	logger mlog.Logger
	tracer trace.Tracer
}

// ContextWithLogger returns a derived context carrying the given logger.
func ContextWithLogger(ctx context.Context, logger mlog.Logger) context.Context {
	v := fromContext(ctx)
	v.logger = logger

	return context.WithValue(ctx, contextKey{}, v)
}

// NewLoggerFromContext recovers the logger attached by ContextWithLogger, or
// a no-op fallback if none was attached.
func NewLoggerFromContext(ctx context.Context) mlog.Logger {
	v := fromContext(ctx)
	if v.logger == nil {
		return noopLogger{}
	}

	return v.logger
}

// ContextWithTracer returns a derived context carrying the given tracer.
func ContextWithTracer(ctx context.Context, tracer trace.Tracer) context.Context {
	v := fromContext(ctx)
	v.tracer = tracer

	return context.WithValue(ctx, contextKey{}, v)
}

// NewTracerFromContext recovers the tracer attached by ContextWithTracer, or
// the global no-op tracer if none was attached.
func NewTracerFromContext(ctx context.Context) trace.Tracer {
	v := fromContext(ctx)
	if v.tracer == nil {
		return trace.NewNoopTracerProvider().Tracer("")
	}

	return v.tracer
}

func fromContext(ctx context.Context) values {
	if v, ok := ctx.Value(contextKey{}).(values); ok {
		return v
	}

	return values{}
}

type noopLogger struct{}

func (noopLogger) Info(...any)            {}
func (noopLogger) Infof(string, ...any)   {}
func (noopLogger) Infoln(...any)          {}
func (noopLogger) Warn(...any)            {}
func (noopLogger) Warnf(string, ...any)   {}
func (noopLogger) Warnln(...any)          {}
func (noopLogger) Error(...any)           {}
func (noopLogger) Errorf(string, ...any)  {}
func (noopLogger) Errorln(...any)         {}
func (noopLogger) Debug(...any)           {}
func (noopLogger) Debugf(string, ...any)  {}
func (noopLogger) Debugln(...any)         {}
func (noopLogger) Fatal(...any)           {}
func (noopLogger) Fatalf(string, ...any)  {}
func (noopLogger) Fatalln(...any)         {}
func (n noopLogger) WithFields(...any) mlog.Logger { return n }
func (noopLogger) Sync() error            { return nil }
