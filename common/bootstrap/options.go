package bootstrap

import (
	"github.com/plct-archrv/pkgstatus/common/config"
	"github.com/plct-archrv/pkgstatus/common/logger"
)

// Option customizes component setup
type Option func(*options)

type options struct {
	customConfig   *config.Config
	customLogger   *logger.Logger
	skipDB         bool
	skipCache      bool
	skipMigrations bool
}

func defaultOptions() *options {
	return &options{}
}

// WithConfig injects a pre-built configuration (used by tests)
func WithConfig(cfg *config.Config) Option {
	return func(o *options) {
		o.customConfig = cfg
	}
}

// WithLogger injects a pre-built logger
func WithLogger(log *logger.Logger) Option {
	return func(o *options) {
		o.customLogger = log
	}
}

// SkipDB skips database setup
func SkipDB() Option {
	return func(o *options) {
		o.skipDB = true
	}
}

// SkipCache skips the Redis cache setup
func SkipCache() Option {
	return func(o *options) {
		o.skipCache = true
	}
}

// SkipMigrations connects to the database without applying migrations
func SkipMigrations() Option {
	return func(o *options) {
		o.skipMigrations = true
	}
}
