package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"ITEMS_API_URL", "VITE_API_URL", "ITEMS_ADDR", "ITEMS_STORAGE",
		"ITEMS_DB_PATH", "ITEMS_JSON_PATH", "ITEMS_CORS_ORIGINS",
		"ITEMS_OTEL_ENDPOINT", "ITEMS_OTEL_ENABLED",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.APIURL != DefaultAPIURL {
		t.Fatalf("expected default api url, got %q", cfg.APIURL)
	}
	if cfg.Addr != ":8000" || cfg.Storage != "sqlite" || cfg.DBPath != "items.db" {
		t.Fatalf("unexpected service defaults: %+v", cfg)
	}
	if len(cfg.CORSOrigins) != 0 {
		t.Fatalf("expected no cors origins, got %v", cfg.CORSOrigins)
	}
}

func TestLoadAPIURLPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		items string
		vite  string
		want  string
	}{
		{name: "items wins", items: "http://a", vite: "http://b", want: "http://a"},
		{name: "vite fallback", vite: "http://b", want: "http://b"},
		{name: "blank falls back to default", items: "  ", want: DefaultAPIURL},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			if tt.items != "" {
				t.Setenv("ITEMS_API_URL", tt.items)
			}
			if tt.vite != "" {
				t.Setenv("VITE_API_URL", tt.vite)
			}

			cfg, err := Load()
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if cfg.APIURL != tt.want {
				t.Fatalf("api url = %q, want %q", cfg.APIURL, tt.want)
			}
		})
	}
}

func TestLoadCORSOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("ITEMS_CORS_ORIGINS", " http://localhost:5173, ,http://example.com ")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := []string{"http://localhost:5173", "http://example.com"}
	if !reflect.DeepEqual(cfg.CORSOrigins, want) {
		t.Fatalf("origins = %v, want %v", cfg.CORSOrigins, want)
	}
}

func TestParseEnvError(t *testing.T) {
	clearEnv(t)
	t.Setenv("ITEMS_OTEL_ENABLED", "not-a-bool")

	var cfg Config
	err := ParseEnv(&cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env prefix, got %v", err)
	}
}
