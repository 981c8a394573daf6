package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Database configuration
	DatabasePath string

	// Redis configuration (event streams)
	RedisAddr         string
	RedisDB           int
	RedisStream       string
	RedisStreamMaxLen int

	// Memcache configuration (scrape rate-limit cache)
	MemcacheAddr string

	// Monitoring configuration
	MonitorInterval      time.Duration
	MonitorBatchLimit    int
	PriceChangeThreshold float64
	AlertRecheckInterval time.Duration
	RetentionDays        int

	// Scraping configuration
	ScrapeTimeout     time.Duration
	ScrapeConcurrency int
	RateLimitBlock    time.Duration
	UserAgent         string

	// Email notification configuration
	EnableEmail  bool
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	return Config{
		DatabasePath:         getEnv("DATABASE_PATH", "pricepick.db"),
		RedisAddr:            getEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:              getEnvInt("REDIS_DB", 0),
		RedisStream:          getEnv("REDIS_STREAM", "pricepick"),
		RedisStreamMaxLen:    getEnvInt("REDIS_STREAM_MAX_LENGTH", 500),
		MemcacheAddr:         getEnv("MEMCACHE_ADDR", "localhost:11211"),
		MonitorInterval:      getEnvSeconds("PRICE_CHECK_INTERVAL_SECONDS", 3600),
		MonitorBatchLimit:    getEnvInt("MONITOR_BATCH_LIMIT", 100),
		PriceChangeThreshold: getEnvFloat("PRICE_CHANGE_THRESHOLD", 0.05),
		AlertRecheckInterval: getEnvSeconds("ALERT_RECHECK_SECONDS", 3600),
		RetentionDays:        getEnvInt("MAX_PRICE_HISTORY_DAYS", 90),
		ScrapeTimeout:        getEnvSeconds("REQUEST_TIMEOUT_SECONDS", 30),
		ScrapeConcurrency:    getEnvInt("SCRAPE_CONCURRENCY", 5),
		RateLimitBlock:       getEnvSeconds("RATE_LIMIT_BLOCK_SECONDS", 300),
		UserAgent:            getEnv("USER_AGENT", "PricePick/1.0 (Price Tracking Bot)"),
		EnableEmail:          getEnvBool("ENABLE_EMAIL_NOTIFICATIONS", false),
		SMTPHost:             getEnv("SMTP_HOST", ""),
		SMTPPort:             getEnvInt("SMTP_PORT", 587),
		SMTPUsername:         getEnv("SMTP_USERNAME", ""),
		SMTPPassword:         getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:             getEnv("SMTP_FROM_EMAIL", ""),
		Environment:          getEnv("PRICEPICK_ENVIRONMENT", "development"),
	}
}

// Validate checks the configuration for invalid values
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH must not be empty")
	}
	if c.MonitorInterval <= 0 {
		return fmt.Errorf("PRICE_CHECK_INTERVAL_SECONDS must be positive")
	}
	if c.ScrapeConcurrency <= 0 {
		return fmt.Errorf("SCRAPE_CONCURRENCY must be positive")
	}
	if c.PriceChangeThreshold < 0 || c.PriceChangeThreshold > 1 {
		return fmt.Errorf("PRICE_CHANGE_THRESHOLD must be a fraction in [0,1]")
	}
	if c.RetentionDays <= 0 {
		return fmt.Errorf("MAX_PRICE_HISTORY_DAYS must be positive")
	}
	if c.EnableEmail && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST is required when email notifications are enabled")
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return defaultValue
	}
	return f
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	return time.Duration(getEnvInt(key, defaultSeconds)) * time.Second
}
