package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server   ServerConfig
	Scraper  ScraperConfig
	Browser  BrowserConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Logging  LoggingConfig
}

type ServerConfig struct {
	Port            string
	Host            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type ScraperConfig struct {
	// FlavourPacing is the delay before each flavour-page visit, a
	// deliberate rate limit against anti-bot defenses.
	FlavourPacing time.Duration
	// MaxRuntime bounds a run's wall clock when positive; extractors
	// check it before each page and card and stop early. Used in tests
	// and smoke runs only.
	MaxRuntime time.Duration
	// MaxPages caps numbered pagination per retailer.
	MaxPages int
	// PageLeases is the number of product-page visits before the browser
	// context is recycled to bound memory growth.
	PageLeases int
	// RateLimitMin/Max bound the jittered gap between static page
	// fetches; zero disables pacing.
	RateLimitMin time.Duration
	RateLimitMax time.Duration
}

type BrowserConfig struct {
	Headless       bool
	Timeout        time.Duration
	ViewportWidth  int
	ViewportHeight int
	AcceptLanguage string
	TimezoneID     string
	Locale         string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type RedisConfig struct {
	Addr   string
	Stream string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnvOrDefault("SERVER_PORT", "8080"),
			Host:            getEnvOrDefault("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:     getDurationOrDefault("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    getDurationOrDefault("SERVER_WRITE_TIMEOUT", 30*time.Second),
			ShutdownTimeout: getDurationOrDefault("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Scraper: ScraperConfig{
			FlavourPacing: getDurationOrDefault("SCRAPER_FLAVOUR_PACING", 250*time.Millisecond),
			MaxRuntime:    getDurationOrDefault("SCRAPER_MAX_RUNTIME", 0),
			MaxPages:      getIntOrDefault("SCRAPER_MAX_PAGES", 50),
			PageLeases:    getIntOrDefault("SCRAPER_PAGE_LEASES", 40),
			RateLimitMin:  getDurationOrDefault("SCRAPER_RATE_LIMIT_MIN", 0),
			RateLimitMax:  getDurationOrDefault("SCRAPER_RATE_LIMIT_MAX", 0),
		},
		Browser: BrowserConfig{
			Headless:       getBoolOrDefault("BROWSER_HEADLESS", true),
			Timeout:        getDurationOrDefault("BROWSER_TIMEOUT", 30*time.Second),
			ViewportWidth:  getIntOrDefault("BROWSER_VIEWPORT_WIDTH", 1920),
			ViewportHeight: getIntOrDefault("BROWSER_VIEWPORT_HEIGHT", 1080),
			AcceptLanguage: getEnvOrDefault("BROWSER_ACCEPT_LANGUAGE", "en-NZ,en;q=0.9"),
			TimezoneID:     getEnvOrDefault("BROWSER_TIMEZONE", "Pacific/Auckland"),
			Locale:         getEnvOrDefault("BROWSER_LOCALE", "en-NZ"),
		},
		Database: DatabaseConfig{
			Host:     getEnvOrDefault("DB_HOST", "localhost"),
			Port:     getIntOrDefault("DB_PORT", 5432),
			User:     getEnvOrDefault("DB_USER", "postgres"),
			Password: getEnvOrDefault("DB_PASSWORD", ""),
			DBName:   getEnvOrDefault("DB_NAME", "suppscan"),
			SSLMode:  getEnvOrDefault("DB_SSL_MODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:   getEnvOrDefault("REDIS_ADDR", "localhost:6379"),
			Stream: getEnvOrDefault("REDIS_STREAM", "stream:scrape_batches"),
		},
		Logging: LoggingConfig{
			Level:  getEnvOrDefault("LOG_LEVEL", "info"),
			Format: getEnvOrDefault("LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Scraper.MaxPages < 1 {
		return fmt.Errorf("SCRAPER_MAX_PAGES must be at least 1")
	}

	if c.Scraper.PageLeases < 1 {
		return fmt.Errorf("SCRAPER_PAGE_LEASES must be at least 1")
	}

	if c.Scraper.FlavourPacing < 0 {
		return fmt.Errorf("SCRAPER_FLAVOUR_PACING cannot be negative")
	}

	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
