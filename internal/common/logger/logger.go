package logger

import (
	"sort"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
)

// Logger is the leveled, field-based interface services and workers log
// through. Fields travel as plain maps so call sites stay free of zap types.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	WithFields(fields map[string]interface{}) Logger
	WithError(err error) Logger
	With(fields map[string]interface{}) Logger
}

// New builds the process zap logger. Format selects the json or console
// encoder; outputs override the encoder's default sinks when given, so the
// manager can honor the configured output path once config is loaded.
func New(levelStr, format string, outputs ...string) *zap.Logger {
	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	cfg.Level = zap.NewAtomicLevelAt(parseLevel(levelStr))
	if len(outputs) > 0 && outputs[0] != "" {
		cfg.OutputPaths = outputs
	}

	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// parseLevel maps a config string to a zap level, defaulting to info so a
// typo in config never silences the process.
func parseLevel(s string) zapcore.Level {
	level, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return level
}

type zapAdapter struct {
	l *zap.Logger
}

func (a *zapAdapter) Debug(msg string, fields map[string]interface{}) {
	a.l.Debug(msg, zapFields(fields)...)
}

func (a *zapAdapter) Info(msg string, fields map[string]interface{}) {
	a.l.Info(msg, zapFields(fields)...)
}

func (a *zapAdapter) Warn(msg string, fields map[string]interface{}) {
	a.l.Warn(msg, zapFields(fields)...)
}

func (a *zapAdapter) Error(msg string, fields map[string]interface{}) {
	a.l.Error(msg, zapFields(fields)...)
}

func (a *zapAdapter) WithFields(fields map[string]interface{}) Logger {
	return &zapAdapter{l: a.l.With(zapFields(fields)...)}
}

func (a *zapAdapter) WithError(err error) Logger {
	return &zapAdapter{l: a.l.With(zap.Error(err))}
}

// With is an alias for WithFields; some worker packages prefer the shorter
// name.
func (a *zapAdapter) With(fields map[string]interface{}) Logger {
	return a.WithFields(fields)
}

// zapFields converts a field map to zap fields in sorted key order, keeping
// field order stable across entries for the same call site.
func zapFields(fields map[string]interface{}) []zap.Field {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}

// NewStructured builds a Logger backed by a fresh zap logger.
func NewStructured(levelStr, format string) Logger {
	return &zapAdapter{l: New(levelStr, format)}
}

// NewZapAdapter wraps an existing *zap.Logger, sharing its cores and sinks.
func NewZapAdapter(l *zap.Logger) Logger {
	return &zapAdapter{l: l}
}

// NewTestLogger routes log output through testing.T so entries show up
// alongside failures.
func NewTestLogger(t testing.TB) Logger {
	return &zapAdapter{l: zaptest.NewLogger(t)}
}

// NewNoOpLogger discards everything.
func NewNoOpLogger() Logger {
	return &zapAdapter{l: zap.NewNop()}
}
