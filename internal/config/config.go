// Package config loads server configuration from the environment, with
// optional .env file support for development.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server settings.
type Config struct {
	Addr           string
	JWTSecret      string
	TokenTTL       time.Duration
	ReaperInterval time.Duration
	BaseURL        string

	// Tenants maps a repository selector to its SQLite file.
	Tenants map[string]string

	SMTPHost string
	SMTPPort string
	SMTPFrom string
}

// DefaultTenant is the selector used when a request does not name one.
const DefaultTenant = "default"

// Load reads configuration from the environment. A .env file in the
// working directory is honored if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Addr:           getenv("ADDR", ":8080"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		BaseURL:        getenv("BASE_URL", "http://localhost:8080"),
		TokenTTL:       7 * 24 * time.Hour,
		ReaperInterval: time.Hour,
		SMTPHost:       os.Getenv("SMTP_HOST"),
		SMTPPort:       getenv("SMTP_PORT", "25"),
		SMTPFrom:       getenv("SMTP_FROM", "assetdesk@localhost"),
	}

	if v := os.Getenv("TOKEN_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parsing TOKEN_TTL: %w", err)
		}
		cfg.TokenTTL = d
	}
	if v := os.Getenv("REAPER_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("parsing REAPER_INTERVAL: %w", err)
		}
		cfg.ReaperInterval = d
	}

	tenants, err := parseTenants(getenv("TENANTS", DefaultTenant+"=assetdesk.sqlite3"))
	if err != nil {
		return nil, err
	}
	cfg.Tenants = tenants

	return cfg, nil
}

// parseTenants parses "name=file,name=file" into a selector map.
func parseTenants(spec string) (map[string]string, error) {
	tenants := make(map[string]string)
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, file, ok := strings.Cut(part, "=")
		if !ok || name == "" || file == "" {
			return nil, fmt.Errorf("invalid tenant entry %q (want name=file)", part)
		}
		if _, dup := tenants[name]; dup {
			return nil, fmt.Errorf("duplicate tenant %q", name)
		}
		tenants[name] = file
	}
	if len(tenants) == 0 {
		return nil, fmt.Errorf("no tenants configured")
	}
	return tenants, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
