package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type fileConfig struct {
	DatabaseURL    string `yaml:"database_url"`
	DataPath       string `yaml:"data_path"`
	RedisURL       string `yaml:"redis_url"`
	LocalCacheMB   *int   `yaml:"local_cache_mb"`
	ServerPort     string `yaml:"server_port"`
	UserAgent      string `yaml:"user_agent"`
	Timeout        string `yaml:"timeout"`
	ProviderURL    string `yaml:"provider_url"`
	AdminCode      string `yaml:"admin_code"`
	LogLevel       string `yaml:"log_level"`
	LogPretty      bool   `yaml:"log_pretty"`
	MetricsEnabled bool   `yaml:"metrics_enabled"`
}

// LoadFromFile loads config from a YAML file. Missing keys keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("ReadFile: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes.
func Parse(data []byte) (*Config, error) {
	var f fileConfig
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	c := Default()
	setString(&c.DatabaseURL, f.DatabaseURL)
	setString(&c.DataPath, f.DataPath)
	setString(&c.RedisURL, f.RedisURL)
	setString(&c.ServerPort, f.ServerPort)
	setString(&c.UserAgent, f.UserAgent)
	setString(&c.ProviderURL, f.ProviderURL)
	setString(&c.AdminCode, f.AdminCode)
	setString(&c.LogLevel, f.LogLevel)
	if f.LocalCacheMB != nil {
		c.LocalCacheMB = *f.LocalCacheMB
	}
	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return nil, fmt.Errorf("%w: timeout: %v", ErrInvalidConfig, err)
		}
		c.Timeout = d
	}
	c.LogPretty = f.LogPretty
	c.MetricsEnabled = f.MetricsEnabled
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}
