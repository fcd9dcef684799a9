package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration
type Config struct {
	Service  ServiceConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Telegram TelegramConfig
	Notify   NotifyConfig
	Cache    CacheConfig
}

// ServiceConfig holds service-specific settings
type ServiceConfig struct {
	Name        string
	Port        int
	Environment string
	LogLevel    string
	LogFormat   string
	// APIToken is the shared secret checked on the trigger routes
	APIToken string
}

// DatabaseConfig holds Postgres connection settings
type DatabaseConfig struct {
	Host        string
	Port        int
	Database    string
	User        string
	Password    string
	MaxConns    int
	MinConns    int
	MaxIdleTime time.Duration
	MaxLifetime time.Duration
}

// RedisConfig holds Redis connection settings for the status cache
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// TelegramConfig holds the bot credentials and the target group
type TelegramConfig struct {
	BotToken string
	GroupID  int64
	// APIBaseURL is overridable for tests; defaults to the public Bot API
	APIBaseURL string
}

// NotifyConfig holds notifier pipeline settings
type NotifyConfig struct {
	// FlushInterval is how often the batcher merges pending notices
	FlushInterval time.Duration
	// SendTimeout bounds a single delivery attempt
	SendTimeout time.Duration
}

// CacheConfig holds status dashboard cache settings
type CacheConfig struct {
	Enabled   bool
	StatusTTL time.Duration
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        serviceName,
			Port:        getEnvInt("PORT", 30644),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			LogFormat:   getEnv("LOG_FORMAT", "text"),
			APIToken:    getEnv("HTTP_API_TOKEN", ""),
		},
		Database: DatabaseConfig{
			Host:        getEnv("POSTGRES_HOST", "localhost"),
			Port:        getEnvInt("POSTGRES_PORT", 5432),
			Database:    getEnv("POSTGRES_DB", "pkgstatus"),
			User:        getEnv("POSTGRES_USER", "pkgstatus"),
			Password:    getEnv("POSTGRES_PASSWORD", "pkgstatus"),
			MaxConns:    getEnvInt("POSTGRES_MAX_CONNS", 10),
			MinConns:    getEnvInt("POSTGRES_MIN_CONNS", 2),
			MaxIdleTime: getEnvDuration("POSTGRES_MAX_IDLE_TIME", 30*time.Minute),
			MaxLifetime: getEnvDuration("POSTGRES_MAX_LIFETIME", 1*time.Hour),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Telegram: TelegramConfig{
			BotToken:   getEnv("TG_BOT_TOKEN", ""),
			GroupID:    getEnvInt64("TG_GROUP_ID", 0),
			APIBaseURL: getEnv("TG_API_URL", "https://api.telegram.org"),
		},
		Notify: NotifyConfig{
			FlushInterval: getEnvDuration("NOTIFY_FLUSH_INTERVAL", 1*time.Second),
			SendTimeout:   getEnvDuration("NOTIFY_SEND_TIMEOUT", 10*time.Second),
		},
		Cache: CacheConfig{
			Enabled:   getEnvBool("CACHE_ENABLED", true),
			StatusTTL: getEnvDuration("STATUS_CACHE_TTL", 10*time.Second),
		},
	}

	return cfg, cfg.Validate()
}

// Validate checks if configuration is valid
func (c *Config) Validate() error {
	if c.Service.Port < 1 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Service.Port)
	}

	if c.Service.APIToken == "" {
		return fmt.Errorf("HTTP_API_TOKEN is required")
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.MaxConns < c.Database.MinConns {
		return fmt.Errorf("max_conns must be >= min_conns")
	}

	if c.Telegram.BotToken == "" {
		return fmt.Errorf("TG_BOT_TOKEN is required")
	}

	if c.Telegram.GroupID == 0 {
		return fmt.Errorf("TG_GROUP_ID is required")
	}

	if c.Notify.FlushInterval <= 0 {
		return fmt.Errorf("notify flush interval must be positive")
	}

	return nil
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
	)
}

// RedisAddr returns the host:port address for the Redis client
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Redis.Host, c.Redis.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
