// Package logger is the structured logging facade used across the enrichment
// service. It wraps zap so handlers and pipeline stages depend on a small
// interface instead of the concrete zap types.
package logger

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the logging contract every component receives.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	// With returns a child logger carrying the given fields on every entry.
	With(fields ...Field) Logger
	// Sync flushes buffered entries.
	Sync() error
}

// Field is a key-value pair attached to a log entry.
type Field = zap.Field

// Config controls logger construction.
type Config struct {
	Level       string   `env:"LOG_LEVEL"  yaml:"level"`
	Format      string   `env:"LOG_FORMAT" yaml:"format"`
	Development bool     `yaml:"development"`
	OutputPaths []string `yaml:"output_paths"`
}

const (
	defaultLevel  = "info"
	defaultFormat = "json"
	formatConsole = "console"
)

func (c *Config) setDefaults() {
	if c.Level == "" {
		c.Level = defaultLevel
	}
	if c.Format == "" {
		c.Format = defaultFormat
	}
	if len(c.OutputPaths) == 0 {
		c.OutputPaths = []string{"stdout"}
	}
}

type zapLogger struct {
	z *zap.Logger
}

// New builds a zap-backed Logger. JSON is the default encoding; "console"
// switches to the human-readable encoder for local runs.
func New(cfg Config) (Logger, error) {
	cfg.setDefaults()

	zapCfg := zap.NewProductionConfig()
	if cfg.Format == formatConsole {
		zapCfg.Encoding = formatConsole
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapCfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder
	zapCfg.Level = zap.NewAtomicLevelAt(parseLevel(cfg.Level))
	zapCfg.OutputPaths = cfg.OutputPaths
	if cfg.Development {
		zapCfg.Sampling = nil
	}

	z, err := zapCfg.Build(
		zap.AddCallerSkip(1),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	if err != nil {
		return nil, fmt.Errorf("build zap logger: %w", err)
	}
	return &zapLogger{z: z}, nil
}

// Must is New that panics on error.
func Must(cfg Config) Logger {
	l, err := New(cfg)
	if err != nil {
		panic(err)
	}
	return l
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func (l *zapLogger) Debug(msg string, fields ...Field) { l.z.Debug(msg, fields...) }
func (l *zapLogger) Info(msg string, fields ...Field)  { l.z.Info(msg, fields...) }
func (l *zapLogger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, fields...) }
func (l *zapLogger) Error(msg string, fields ...Field) { l.z.Error(msg, fields...) }

func (l *zapLogger) With(fields ...Field) Logger {
	return &zapLogger{z: l.z.With(fields...)}
}

func (l *zapLogger) Sync() error { return l.z.Sync() }

// String creates a string field.
func String(key, val string) Field { return zap.String(key, val) }

// Strings creates a string slice field.
func Strings(key string, val []string) Field { return zap.Strings(key, val) }

// Int creates an int field.
func Int(key string, val int) Field { return zap.Int(key, val) }

// Bool creates a bool field.
func Bool(key string, val bool) Field { return zap.Bool(key, val) }

// Duration creates a duration field.
func Duration(key string, val time.Duration) Field { return zap.Duration(key, val) }

// Error creates an error field under the "error" key.
func Error(err error) Field { return zap.Error(err) }

// Any creates a field holding an arbitrary value.
func Any(key string, val any) Field { return zap.Any(key, val) }
