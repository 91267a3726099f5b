package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration for the MasterDesk server.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Calendar CalendarConfig
	Dispatch DispatchConfig
}

type ServerConfig struct {
	Port int
	Env  string
}

type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type RedisConfig struct {
	URL string
}

// CalendarConfig configures the calendar bridge sink. BaseURL is optional;
// with no URL the server runs with a no-op sink.
type CalendarConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

type DispatchConfig struct {
	DefaultCity string
}

// Load reads configuration from environment variables and returns a validated Config.
// Returns an error with a descriptive message if any required value is missing or invalid.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("MASTERDESK_PORT", 8080),
			Env:  envString("MASTERDESK_ENV", "development"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL: os.Getenv("REDIS_URL"),
		},
		Calendar: CalendarConfig{
			BaseURL: os.Getenv("CALENDAR_BASE_URL"),
			Token:   os.Getenv("CALENDAR_TOKEN"),
			Timeout: envDuration("CALENDAR_TIMEOUT", 10*time.Second),
		},
		Dispatch: DispatchConfig{
			DefaultCity: envString("MASTERDESK_DEFAULT_CITY", "kaliningrad"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Redis.URL == "" {
		return fmt.Errorf("REDIS_URL is required")
	}

	if c.Calendar.BaseURL != "" &&
		!strings.HasPrefix(c.Calendar.BaseURL, "http://") && !strings.HasPrefix(c.Calendar.BaseURL, "https://") {
		return fmt.Errorf("CALENDAR_BASE_URL must start with http:// or https://, got %q", c.Calendar.BaseURL)
	}

	return nil
}

func envString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
