// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// DefaultAPIURL is used when no items service base URL is configured.
const DefaultAPIURL = "http://localhost:8000"

// Config carries every setting the client and the reference service read.
type Config struct {
	// Client side.
	APIURL string `env:"ITEMS_API_URL"`

	// Reference service side.
	Addr        string   `env:"ITEMS_ADDR" envDefault:":8000"`
	Storage     string   `env:"ITEMS_STORAGE" envDefault:"sqlite"`
	DBPath      string   `env:"ITEMS_DB_PATH" envDefault:"items.db"`
	JSONPath    string   `env:"ITEMS_JSON_PATH" envDefault:"items.json"`
	CORSOrigins []string `env:"ITEMS_CORS_ORIGINS" envSeparator:","`

	// Tracing is opt-in.
	OTelEndpoint string `env:"ITEMS_OTEL_ENDPOINT"`
	OTelEnabled  bool   `env:"ITEMS_OTEL_ENABLED" envDefault:"true"`

	// Legacy frontend setting, honoured when ITEMS_API_URL is unset.
	ViteAPIURL string `env:"VITE_API_URL"`
}

// ParseEnv loads configuration from environment variables into target.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses the environment and resolves defaults that depend on more
// than one variable.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	cfg.APIURL = ResolveAPIURL(cfg.APIURL, cfg.ViteAPIURL)
	cfg.CORSOrigins = cleanOrigins(cfg.CORSOrigins)
	return cfg, nil
}

// ResolveAPIURL returns the first non-blank candidate, or DefaultAPIURL.
func ResolveAPIURL(candidates ...string) string {
	for _, c := range candidates {
		if c = strings.TrimSpace(c); c != "" {
			return c
		}
	}
	return DefaultAPIURL
}

func cleanOrigins(in []string) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
