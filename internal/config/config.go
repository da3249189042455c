package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gookit/validate"
)

// Defaults.
const (
	DefaultDataPath   = "gonet.db"
	DefaultServerPort = "8080"
	DefaultUserAgent  = "GoNet/1.0"
	DefaultAdminCode  = "gonet1229"
	DefaultLogLevel   = "info"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config holds application configuration.
type Config struct {
	// DatabaseURL selects the Postgres backend when set.
	DatabaseURL string `yaml:"database_url" env:"DATABASE_URL"`
	// DataPath is the bbolt file used when DatabaseURL is empty.
	DataPath string `yaml:"data_path" env:"DATA_PATH" validate:"required"`
	// RedisURL enables the shared read cache and cross-process change events.
	RedisURL string `yaml:"redis_url" env:"REDIS_URL"`
	// LocalCacheMB sizes the in-process cache used without Redis. 0 disables it.
	// Ignored with Postgres, which other processes may write.
	LocalCacheMB int    `yaml:"local_cache_mb" env:"LOCAL_CACHE_MB" validate:"min:0"`
	ServerPort   string `yaml:"server_port" env:"SERVER_PORT" validate:"required|numeric"`

	UserAgent string `yaml:"user_agent" env:"FETCHER_USER_AGENT"`
	// Timeout bounds a remote playlist fetch. 0 means no client-side timeout.
	Timeout     time.Duration `yaml:"timeout" env:"FETCHER_TIMEOUT"`
	ProviderURL string        `yaml:"provider_url" env:"PROVIDER_URL"`

	AdminCode string `yaml:"admin_code" env:"ADMIN_CODE" validate:"required"`

	LogLevel       string `yaml:"log_level" env:"LOG_LEVEL" validate:"required|in:trace,debug,info,warn,error"`
	LogPretty      bool   `yaml:"log_pretty" env:"LOG_PRETTY"`
	MetricsEnabled bool   `yaml:"metrics_enabled" env:"METRICS_ENABLED"`
}

// Default returns a Config with every default applied.
func Default() *Config {
	return &Config{
		DataPath:   DefaultDataPath,
		ServerPort: DefaultServerPort,
		UserAgent:  DefaultUserAgent,
		AdminCode:  DefaultAdminCode,
		LogLevel:   DefaultLogLevel,
	}
}

// Load builds config from environment variables, after filling unset ones
// from .env.local and .env in the working directory or next to the binary.
func Load() (*Config, error) {
	loadEnvFiles()
	c := Default()
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	setString(&c.DatabaseURL, getenv("DATABASE_URL"))
	setString(&c.DataPath, getenv("DATA_PATH"))
	setString(&c.RedisURL, getenv("REDIS_URL"))
	setString(&c.ServerPort, getenv("SERVER_PORT"))
	setString(&c.UserAgent, getenv("FETCHER_USER_AGENT"))
	setString(&c.ProviderURL, getenv("PROVIDER_URL"))
	setString(&c.AdminCode, getenv("ADMIN_CODE"))
	setString(&c.LogLevel, strings.ToLower(getenv("LOG_LEVEL")))

	if s := getenv("LOCAL_CACHE_MB"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("%w: LOCAL_CACHE_MB: %v", ErrInvalidConfig, err)
		}
		c.LocalCacheMB = n
	}
	if s := getenv("FETCHER_TIMEOUT"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("%w: FETCHER_TIMEOUT: %v", ErrInvalidConfig, err)
		}
		c.Timeout = d
	}
	if err := setBool(&c.LogPretty, "LOG_PRETTY", getenv("LOG_PRETTY")); err != nil {
		return err
	}
	return setBool(&c.MetricsEnabled, "METRICS_ENABLED", getenv("METRICS_ENABLED"))
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if c.Timeout < 0 {
		return fmt.Errorf("%w: timeout must not be negative", ErrInvalidConfig)
	}
	v := validate.Struct(c)
	if !v.Validate() {
		return fmt.Errorf("%w: %s", ErrInvalidConfig, v.Errors.One())
	}
	return nil
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string { return ":" + c.ServerPort }

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setBool(dst *bool, name, v string) error {
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
	}
	*dst = b
	return nil
}
