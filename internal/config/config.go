package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// Booking backend (Apps Script web app exec URL)
	BackendURL     string
	BackendTimeout time.Duration

	ShopTimezone    string
	ClockInterval   time.Duration
	RefreshInterval time.Duration

	// Page defaults shown until settings load, and kept when they fail
	DefaultShopName     string
	DefaultContactPhone string
	DefaultContactLine  string

	// Each browser gets its own board; idle ones are closed
	SessionIdleTTL       time.Duration
	SessionSweepInterval time.Duration
	MaxSessions          int

	RateLimitRPS    float64
	RateLimitBurst  int
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables. A .env file in the
// working directory is applied first when present; real env vars win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		BackendURL:     strings.TrimSpace(getEnv("BACKEND_URL", "")),
		BackendTimeout: getEnvAsDuration("BACKEND_TIMEOUT", 15*time.Second),

		ShopTimezone:    getEnv("SHOP_TIMEZONE", "Asia/Taipei"),
		ClockInterval:   getEnvAsDuration("CLOCK_INTERVAL", time.Second),
		RefreshInterval: getEnvAsDuration("REFRESH_INTERVAL", 5*time.Minute),

		DefaultShopName:     getEnv("DEFAULT_SHOP_NAME", "美髮工作室"),
		DefaultContactPhone: getEnv("DEFAULT_CONTACT_PHONE", ""),
		DefaultContactLine:  getEnv("DEFAULT_CONTACT_LINE", ""),

		SessionIdleTTL:       getEnvAsDuration("SESSION_IDLE_TTL", 30*time.Minute),
		SessionSweepInterval: getEnvAsDuration("SESSION_SWEEP_INTERVAL", time.Minute),
		MaxSessions:          getEnvAsInt("MAX_SESSIONS", 1000),

		RateLimitRPS:    getEnvAsFloat("RATE_LIMIT_RPS", 2),
		RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 5),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Location resolves ShopTimezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.ShopTimezone)
	if err != nil {
		return nil, fmt.Errorf("config: invalid SHOP_TIMEZONE %q: %w", c.ShopTimezone, err)
	}
	return loc, nil
}

// BackendConfigured reports whether a backend URL was provided.
func (c *Config) BackendConfigured() bool {
	return c.BackendURL != ""
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil && value > 0 {
		return value
	}
	return defaultValue
}

// getEnvAsDuration accepts Go durations ("90s") or bare seconds ("90").
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil && value > 0 {
		return value
	}
	if n, err := strconv.Atoi(valueStr); err == nil && n > 0 {
		return time.Duration(n) * time.Second
	}
	return defaultValue
}
