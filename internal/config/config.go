package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Redis   RedisConfig
	Kafka   KafkaConfig
	Fetch   FetchConfig
	Advisor AdvisorConfig
	Refresh RefreshConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port string
	Host string
}

// RedisConfig holds the key-value store configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// KafkaConfig holds event publishing configuration
type KafkaConfig struct {
	Enabled bool
	Brokers []string
	Topic   string
}

// FetchConfig holds external price provider configuration
type FetchConfig struct {
	AlphaVantageKey     string
	AlphaVantageBaseURL string
	CoinGeckoBaseURL    string
}

// AdvisorConfig holds the LLM proxy configuration. The API key stays
// server-side and is never exposed through the HTTP API.
type AdvisorConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

// RefreshConfig holds the periodic price refresh configuration
type RefreshConfig struct {
	AutoRefresh bool
	Interval    time.Duration
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port: getEnv("SERVER_PORT", "8080"),
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Enabled: getEnvBool("KAFKA_ENABLED", false),
			Brokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			Topic:   getEnv("KAFKA_TOPIC", "portfolio-events"),
		},
		Fetch: FetchConfig{
			AlphaVantageKey:     getEnv("ALPHAVANTAGE_API_KEY", ""),
			AlphaVantageBaseURL: getEnv("ALPHAVANTAGE_BASE_URL", "https://www.alphavantage.co/query"),
			CoinGeckoBaseURL:    getEnv("COINGECKO_BASE_URL", "https://api.coingecko.com/api/v3"),
		},
		Advisor: AdvisorConfig{
			APIKey:  getEnv("ANTHROPIC_API_KEY", ""),
			BaseURL: getEnv("ANTHROPIC_BASE_URL", "https://api.anthropic.com"),
			Model:   getEnv("ADVISOR_MODEL", "claude-sonnet-4-20250514"),
		},
		Refresh: RefreshConfig{
			AutoRefresh: getEnvBool("AUTO_REFRESH", false),
			Interval:    time.Duration(getEnvInt("AUTO_REFRESH_MINUTES", 5)) * time.Minute,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
