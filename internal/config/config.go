package config

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds application configuration loaded from environment variables.
type Config struct {
	Env  string
	Port string

	DatabaseURL string
	RedisURL    string

	// Messaging gateway.
	GatewayBaseURL  string
	GatewaySecret   string
	GatewayStubMode bool
	BotUsername     string

	// SuperAdminID always has admin capability regardless of stored role.
	SuperAdminID int64

	// News pipeline.
	NewsSourcesPath string
	NewsPollCron    string

	// Minimum delay between consecutive fan-out deliveries, to stay under
	// the gateway rate limit.
	BroadcastDelay time.Duration

	LogLevel  string
	LogFormat string
}

// Load reads configuration from environment variables.
func Load() *Config {
	cfg := &Config{
		Env:             getEnvWithDefault("ENV", "development"),
		Port:            getEnvWithDefault("PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		RedisURL:        getEnvWithDefault("REDIS_URL", "redis://localhost:6379/0"),
		GatewayBaseURL:  getEnvWithDefault("GATEWAY_BASE_URL", "http://localhost:8090"),
		GatewaySecret:   os.Getenv("GATEWAY_SECRET"),
		GatewayStubMode: getEnvBool("GATEWAY_STUB_MODE", false),
		BotUsername:     getEnvWithDefault("BOT_USERNAME", "abitohelp_bot"),
		SuperAdminID:    getEnvInt64("SUPER_ADMIN_ID", 0),
		NewsSourcesPath: getEnvWithDefault("NEWS_SOURCES_PATH", "news-sources.yaml"),
		NewsPollCron:    getEnvWithDefault("NEWS_POLL_CRON", "*/10 * * * *"),
		BroadcastDelay:  getEnvDuration("BROADCAST_DELAY", 50*time.Millisecond),
		LogLevel:        getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat:       getEnvWithDefault("LOG_FORMAT", "text"),
	}

	if cfg.GatewaySecret == "" && !cfg.GatewayStubMode {
		log.Println("WARNING: GATEWAY_SECRET is empty; inbound updates are unauthenticated")
	}

	return cfg
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
