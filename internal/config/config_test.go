package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := LoadFile(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIBaseURL != "http://localhost:8000/api" {
		t.Fatalf("unexpected base url %q", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeout != 30*time.Second {
		t.Fatalf("unexpected timeout %s", cfg.HTTPTimeout)
	}
	if cfg.SessionStore != SessionStoreFile || cfg.DemoMode {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AutoRefresh != 30*time.Second || cfg.BreakerFailures != 5 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.JWTTTL != 12*time.Hour || !cfg.SeedDemoData {
		t.Fatalf("unexpected server defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		t.Fatalf("server defaults should validate: %v", err)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("EPS_API_BASE_URL", " https://eps.example.com/api/ ")
	t.Setenv("EPS_HTTP_TIMEOUT", "5s")
	t.Setenv("EPS_SESSION_STORE", "MEMORY")
	t.Setenv("EPS_DEMO_MODE", "true")

	cfg, err := LoadFile("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.APIBaseURL != "https://eps.example.com/api" {
		t.Fatalf("expected trimmed url, got %q", cfg.APIBaseURL)
	}
	if cfg.HTTPTimeout != 5*time.Second || cfg.SessionStore != SessionStoreMemory || !cfg.DemoMode {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	if err := os.WriteFile(path, []byte("EPS_AUTO_REFRESH=10s\nPORT=9090\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.AutoRefresh != 10*time.Second || cfg.Port != "9090" {
		t.Fatalf("expected .env values, got %+v", cfg)
	}
}

func TestValidate(t *testing.T) {
	base := func() Config {
		return Config{
			APIBaseURL:   "http://localhost:8000/api",
			HTTPTimeout:  time.Second,
			SessionStore: SessionStoreMemory,
			AutoRefresh:  time.Second,
		}
	}

	cases := []struct {
		name string
		mod  func(*Config)
		want string
	}{
		{"relative url", func(c *Config) { c.APIBaseURL = "/api" }, "EPS_API_BASE_URL"},
		{"ftp url", func(c *Config) { c.APIBaseURL = "ftp://x/api" }, "EPS_API_BASE_URL"},
		{"zero timeout", func(c *Config) { c.HTTPTimeout = 0 }, "EPS_HTTP_TIMEOUT"},
		{"unknown store", func(c *Config) { c.SessionStore = "redis" }, "EPS_SESSION_STORE"},
		{"postgres without dsn", func(c *Config) { c.SessionStore = SessionStorePostgres }, "EPS_SESSION_DSN"},
		{"file without dir", func(c *Config) { c.SessionStore = SessionStoreFile }, "EPS_SESSION_DIR"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := base()
			tc.mod(&c)
			err := c.Validate()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %s, got %v", tc.want, err)
			}
		})
	}
}
