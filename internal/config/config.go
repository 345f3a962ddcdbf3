package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	SessionStoreFile     = "file"
	SessionStoreMemory   = "memory"
	SessionStorePostgres = "postgres"
)

type Config struct {
	APIBaseURL  string        `mapstructure:"EPS_API_BASE_URL"`
	HTTPTimeout time.Duration `mapstructure:"EPS_HTTP_TIMEOUT"`

	SessionStore string `mapstructure:"EPS_SESSION_STORE"`
	SessionDir   string `mapstructure:"EPS_SESSION_DIR"`
	SessionDSN   string `mapstructure:"EPS_SESSION_DSN"`

	DemoMode    bool          `mapstructure:"EPS_DEMO_MODE"`
	AutoRefresh time.Duration `mapstructure:"EPS_AUTO_REFRESH"`

	BreakerEnabled     bool          `mapstructure:"EPS_BREAKER_ENABLED"`
	BreakerFailures    uint32        `mapstructure:"EPS_BREAKER_FAILURES"`
	BreakerOpenTimeout time.Duration `mapstructure:"EPS_BREAKER_OPEN_TIMEOUT"`

	// Backend demo
	Port         string        `mapstructure:"PORT"`
	DatabaseDSN  string        `mapstructure:"DB_DSN"`
	JWTSecret    string        `mapstructure:"JWT_SECRET"`
	JWTTTL       time.Duration `mapstructure:"JWT_TTL"`
	SeedDemoData bool          `mapstructure:"SEED_DEMO_DATA"`

	LogLevel  string `mapstructure:"LOG_LEVEL"`
	LogFormat string `mapstructure:"LOG_FORMAT"`
	AppName   string `mapstructure:"APP_NAME"`
}

var keys = []string{
	"EPS_API_BASE_URL", "EPS_HTTP_TIMEOUT",
	"EPS_SESSION_STORE", "EPS_SESSION_DIR", "EPS_SESSION_DSN",
	"EPS_DEMO_MODE", "EPS_AUTO_REFRESH",
	"EPS_BREAKER_ENABLED", "EPS_BREAKER_FAILURES", "EPS_BREAKER_OPEN_TIMEOUT",
	"PORT", "DB_DSN", "JWT_SECRET", "JWT_TTL", "SEED_DEMO_DATA",
	"LOG_LEVEL", "LOG_FORMAT", "APP_NAME",
}

// Load lee .env (si existe) + variables de entorno.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile es Load con un archivo .env explícito. Si no existe, se ignora.
func LoadFile(envFile string) (*Config, error) {
	v := viper.New()
	if envFile != "" {
		v.SetConfigFile(envFile)
		v.SetConfigType("env")
	}
	v.AutomaticEnv()

	v.SetDefault("EPS_API_BASE_URL", "http://localhost:8000/api")
	v.SetDefault("EPS_HTTP_TIMEOUT", "30s")
	v.SetDefault("EPS_SESSION_STORE", SessionStoreFile)
	v.SetDefault("EPS_SESSION_DIR", defaultSessionDir())
	v.SetDefault("EPS_DEMO_MODE", false)
	v.SetDefault("EPS_AUTO_REFRESH", "30s")
	v.SetDefault("EPS_BREAKER_ENABLED", false)
	v.SetDefault("EPS_BREAKER_FAILURES", 5)
	v.SetDefault("EPS_BREAKER_OPEN_TIMEOUT", "30s")
	v.SetDefault("PORT", "8000")
	v.SetDefault("JWT_SECRET", "dev-secret-change-me")
	v.SetDefault("JWT_TTL", "12h")
	v.SetDefault("SEED_DEMO_DATA", true)
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("APP_NAME", "eps-citas")

	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	if envFile != "" {
		if err := v.ReadInConfig(); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("read %s: %w", envFile, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.APIBaseURL = strings.TrimRight(strings.TrimSpace(cfg.APIBaseURL), "/")
	cfg.SessionStore = strings.ToLower(strings.TrimSpace(cfg.SessionStore))
	return cfg, nil
}

// Validate revisa que la config sirva para el cliente.
func (c *Config) Validate() error {
	u, err := url.ParseRequestURI(c.APIBaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("EPS_API_BASE_URL must be an absolute http(s) url, got %q", c.APIBaseURL)
	}
	if c.HTTPTimeout <= 0 {
		return fmt.Errorf("EPS_HTTP_TIMEOUT must be positive, got %s", c.HTTPTimeout)
	}
	switch c.SessionStore {
	case SessionStoreFile:
		if strings.TrimSpace(c.SessionDir) == "" {
			return errors.New("EPS_SESSION_DIR is required when EPS_SESSION_STORE is \"file\"")
		}
	case SessionStoreMemory:
	case SessionStorePostgres:
		if strings.TrimSpace(c.SessionDSN) == "" {
			return errors.New("EPS_SESSION_DSN is required when EPS_SESSION_STORE is \"postgres\"")
		}
	default:
		return fmt.Errorf("EPS_SESSION_STORE must be \"file\", \"memory\" or \"postgres\", got %q", c.SessionStore)
	}
	if c.AutoRefresh <= 0 {
		return fmt.Errorf("EPS_AUTO_REFRESH must be positive, got %s", c.AutoRefresh)
	}
	return nil
}

// ValidateServer revisa la parte de la config que usa el backend demo.
func (c *Config) ValidateServer() error {
	if strings.TrimSpace(c.Port) == "" {
		return errors.New("PORT is required")
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.JWTTTL)
	}
	return nil
}

func defaultSessionDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".eps-citas"
	}
	return filepath.Join(home, ".eps-citas")
}

func isNotExist(err error) bool {
	var nf viper.ConfigFileNotFoundError
	return errors.As(err, &nf) || errors.Is(err, os.ErrNotExist)
}
