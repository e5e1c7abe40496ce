// Package mlog defines the structured-logging contract every component in
// this repository depends on instead of a concrete logging library.
package mlog

// Logger is a structured logger. Implementations (pkg/mzap) may enrich every
// line with trace/span ids and per-request fields.
type Logger interface {
	Info(args ...any)
	Infof(format string, args ...any)
	Infoln(args ...any)

	Warn(args ...any)
	Warnf(format string, args ...any)
	Warnln(args ...any)

	Error(args ...any)
	Errorf(format string, args ...any)
	Errorln(args ...any)

	Debug(args ...any)
	Debugf(format string, args ...any)
	Debugln(args ...any)

	Fatal(args ...any)
	Fatalf(format string, args ...any)
	Fatalln(args ...any)

	// WithFields returns a derived logger carrying the given key/value pairs
	// on every subsequent line. fields must alternate key, value, key, value...
	WithFields(fields ...any) Logger

	// Sync flushes any buffered log entries. Call on shutdown.
	Sync() error
}

// Level mirrors the standard zap level set so callers configuring the logger
// from environment do not need to import zap directly.
type Level int8

const (
	DebugLevel Level = iota - 1
	InfoLevel
	WarnLevel
	ErrorLevel
	FatalLevel
)

// ParseLevel converts a case-insensitive level name, defaulting to Info for
// anything unrecognised.
func ParseLevel(s string) Level {
	switch s {
	case "debug", "DEBUG":
		return DebugLevel
	case "warn", "WARN", "warning", "WARNING":
		return WarnLevel
	case "error", "ERROR":
		return ErrorLevel
	case "fatal", "FATAL":
		return FatalLevel
	default:
		return InfoLevel
	}
}
