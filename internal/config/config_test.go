package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "ENV", "LOG_LEVEL", "BACKEND_URL", "BACKEND_TIMEOUT", "SHOP_TIMEZONE",
		"CLOCK_INTERVAL", "REFRESH_INTERVAL", "DEFAULT_SHOP_NAME", "DEFAULT_CONTACT_PHONE",
		"DEFAULT_CONTACT_LINE", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "SHUTDOWN_TIMEOUT",
		"SESSION_IDLE_TTL", "SESSION_SWEEP_INTERVAL", "MAX_SESSIONS",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.Port != "8080" {
		t.Fatalf("expected default port, got %s", cfg.Port)
	}
	if cfg.Env != "development" {
		t.Fatalf("expected default env, got %s", cfg.Env)
	}
	if cfg.BackendConfigured() {
		t.Fatalf("expected backend to be unconfigured by default")
	}
	if cfg.BackendTimeout != 15*time.Second {
		t.Fatalf("expected default backend timeout, got %s", cfg.BackendTimeout)
	}
	if cfg.ClockInterval != time.Second {
		t.Fatalf("expected 1s clock interval, got %s", cfg.ClockInterval)
	}
	if cfg.RefreshInterval != 5*time.Minute {
		t.Fatalf("expected 5m refresh interval, got %s", cfg.RefreshInterval)
	}
	if cfg.ShopTimezone != "Asia/Taipei" {
		t.Fatalf("expected default timezone, got %s", cfg.ShopTimezone)
	}
	if cfg.DefaultShopName == "" {
		t.Fatalf("expected a default shop name")
	}
	if cfg.RateLimitRPS != 2 || cfg.RateLimitBurst != 5 {
		t.Fatalf("unexpected rate limit defaults: %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.SessionIdleTTL != 30*time.Minute || cfg.SessionSweepInterval != time.Minute {
		t.Fatalf("unexpected session timing defaults: %s/%s", cfg.SessionIdleTTL, cfg.SessionSweepInterval)
	}
	if cfg.MaxSessions != 1000 {
		t.Fatalf("expected default max sessions, got %d", cfg.MaxSessions)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("BACKEND_URL", "  https://script.google.com/macros/s/abc/exec ")
	t.Setenv("BACKEND_TIMEOUT", "5")
	t.Setenv("SHOP_TIMEZONE", "Asia/Tokyo")
	t.Setenv("REFRESH_INTERVAL", "2m")
	t.Setenv("DEFAULT_CONTACT_LINE", "@salon")
	t.Setenv("RATE_LIMIT_RPS", "0.5")
	t.Setenv("RATE_LIMIT_BURST", "3")
	t.Setenv("SESSION_IDLE_TTL", "10m")
	t.Setenv("MAX_SESSIONS", "50")

	cfg := Load()
	if cfg.Port != "9090" {
		t.Fatalf("expected override port, got %s", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level override, got %s", cfg.LogLevel)
	}
	if cfg.BackendURL != "https://script.google.com/macros/s/abc/exec" {
		t.Fatalf("expected trimmed backend url, got %q", cfg.BackendURL)
	}
	if cfg.BackendTimeout != 5*time.Second {
		t.Fatalf("expected bare seconds to parse, got %s", cfg.BackendTimeout)
	}
	if cfg.RefreshInterval != 2*time.Minute {
		t.Fatalf("expected refresh override, got %s", cfg.RefreshInterval)
	}
	if cfg.DefaultContactLine != "@salon" {
		t.Fatalf("expected line override, got %s", cfg.DefaultContactLine)
	}
	if cfg.RateLimitRPS != 0.5 || cfg.RateLimitBurst != 3 {
		t.Fatalf("unexpected rate limit overrides: %v/%d", cfg.RateLimitRPS, cfg.RateLimitBurst)
	}
	if cfg.SessionIdleTTL != 10*time.Minute || cfg.MaxSessions != 50 {
		t.Fatalf("unexpected session overrides: %s/%d", cfg.SessionIdleTTL, cfg.MaxSessions)
	}

	loc, err := cfg.Location()
	if err != nil {
		t.Fatalf("Location() error = %v", err)
	}
	if loc.String() != "Asia/Tokyo" {
		t.Fatalf("location = %s", loc)
	}
}

func TestLoadInvalidValuesFallBack(t *testing.T) {
	t.Setenv("CLOCK_INTERVAL", "soon")
	t.Setenv("RATE_LIMIT_BURST", "many")
	t.Setenv("RATE_LIMIT_RPS", "-1")

	cfg := Load()
	if cfg.ClockInterval != time.Second {
		t.Fatalf("expected fallback clock interval, got %s", cfg.ClockInterval)
	}
	if cfg.RateLimitBurst != 5 {
		t.Fatalf("expected fallback burst, got %d", cfg.RateLimitBurst)
	}
	if cfg.RateLimitRPS != 2 {
		t.Fatalf("expected fallback rps, got %v", cfg.RateLimitRPS)
	}
}

func TestLocationInvalid(t *testing.T) {
	cfg := &Config{ShopTimezone: "Mars/Olympus"}
	if _, err := cfg.Location(); err == nil {
		t.Fatalf("expected error for unknown zone")
	}
}
