// Package logger builds the structured, leveled loggers every subsystem in
// the storage stack takes through its Config struct. It is a thin wrapper
// around go.uber.org/zap that standardizes service naming and the
// development/production split so every package logs in the same shape.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option configures the logger returned by New.
type Option func(*zap.Config)

// New builds a *zap.SugaredLogger named after the given service. It
// defaults to zap's production encoder (JSON, ISO8601 timestamps)
// unless ZNSFS_LOG_DEV is set, in which case it switches to the
// human-readable development encoder. Every subsystem Config in this
// module takes the result as-is, so the split is decided once here.
func New(service string, opts ...Option) *zap.SugaredLogger {
	var cfg zap.Config
	if _, dev := os.LookupEnv("ZNSFS_LOG_DEV"); dev {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	for _, opt := range opts {
		opt(&cfg)
	}

	base, err := cfg.Build()
	if err != nil {
		// Logger construction failing indicates a broken zap config, not a
		// recoverable runtime condition; fall back to a no-op logger so
		// callers still get a usable *SugaredLogger.
		return zap.NewNop().Sugar().Named(service)
	}

	return base.Sugar().Named(service)
}

// WithLevel overrides the minimum enabled log level.
func WithLevel(level zapcore.Level) Option {
	return func(c *zap.Config) {
		c.Level = zap.NewAtomicLevelAt(level)
	}
}
