package bootstrap

import (
	"context"
	"fmt"

	"github.com/plct-archrv/pkgstatus/common/cache"
	"github.com/plct-archrv/pkgstatus/common/config"
	"github.com/plct-archrv/pkgstatus/common/db"
	"github.com/plct-archrv/pkgstatus/common/logger"
	"github.com/plct-archrv/pkgstatus/common/notify"
	"github.com/plct-archrv/pkgstatus/common/telegram"
	"github.com/redis/go-redis/v9"
)

// Setup initializes all service components: config, logger, database
// (with migrations), status cache, telegram bot and the notifier
// pipeline.
func Setup(ctx context.Context, serviceName string, opts ...Option) (*Components, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(options)
	}

	components := &Components{
		cleanupFuncs: make([]func() error, 0),
	}

	// 1. Configuration
	var err error
	if options.customConfig != nil {
		components.Config = options.customConfig
	} else {
		components.Config, err = config.Load(serviceName)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	// 2. Logger
	if options.customLogger != nil {
		components.Logger = options.customLogger
	} else {
		components.Logger = logger.New(
			components.Config.Service.LogLevel,
			components.Config.Service.LogFormat,
		)
	}

	components.Logger.Info("initializing service",
		"service", serviceName,
		"environment", components.Config.Service.Environment,
	)

	// 3. Database
	if !options.skipDB {
		components.Logger.Info("connecting to database")
		components.DB, err = db.New(ctx, components.Config, components.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		components.addCleanup(func() error {
			components.DB.Close()
			return nil
		})

		if !options.skipMigrations {
			if err := db.Migrate(components.Config.DatabaseURL(), components.Logger); err != nil {
				components.Shutdown(ctx)
				return nil, fmt.Errorf("failed to migrate database: %w", err)
			}
		}
	}

	// 4. Status cache
	if !options.skipCache && components.Config.Cache.Enabled {
		components.Logger.Info("initializing status cache", "addr", components.Config.RedisAddr())

		client := redis.NewClient(&redis.Options{
			Addr:     components.Config.RedisAddr(),
			Password: components.Config.Redis.Password,
			DB:       components.Config.Redis.DB,
		})
		components.Cache = cache.NewRedis(client, components.Logger)

		components.addCleanup(func() error {
			return components.Cache.Close()
		})
	}

	// 5. Telegram bot + notifier pipeline
	components.Bot, err = telegram.New(
		components.Config.Telegram.BotToken,
		components.Config.Telegram.GroupID,
		components.Config.Telegram.APIBaseURL,
		components.Logger,
	)
	if err != nil {
		components.Shutdown(ctx)
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	components.Notifier = notify.New(
		components.Bot,
		components.Config.Notify.FlushInterval,
		components.Config.Notify.SendTimeout,
		components.Logger,
	)

	components.addCleanup(func() error {
		components.Notifier.Close()
		return nil
	})

	components.Logger.Info("service initialization complete",
		"service", serviceName,
		"db", components.DB != nil,
		"cache", components.Cache != nil,
	)

	return components, nil
}
