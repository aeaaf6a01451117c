package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	DBPath     string           `mapstructure:"db_path" yaml:"db_path"`
	DefaultTLD string           `mapstructure:"default_tld" yaml:"default_tld"`
	Model      ModelConfig      `mapstructure:"model" yaml:"model"`
	Collectors CollectorsConfig `mapstructure:"collectors" yaml:"collectors"`
	Bypass     BypassConfig     `mapstructure:"bypass" yaml:"bypass"`
	Endpoints  EndpointsConfig  `mapstructure:"endpoints" yaml:"endpoints"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit" yaml:"rate_limit"`
}

// ModelConfig controls where the trained model artifact lives and how its
// score is blended with the heuristic score
type ModelConfig struct {
	Path   string  `mapstructure:"path" yaml:"path"`
	Weight float64 `mapstructure:"weight" yaml:"weight"`
}

// CollectorsConfig carries per-collector timeouts (Go duration strings)
// and the size of the fan-out worker pool
type CollectorsConfig struct {
	DNSTimeout   string `mapstructure:"dns_timeout" yaml:"dns_timeout"`
	TLSTimeout   string `mapstructure:"tls_timeout" yaml:"tls_timeout"`
	GeoTimeout   string `mapstructure:"geo_timeout" yaml:"geo_timeout"`
	CTTimeout    string `mapstructure:"ct_timeout" yaml:"ct_timeout"`
	WhoisTimeout string `mapstructure:"whois_timeout" yaml:"whois_timeout"`
	Concurrency  int    `mapstructure:"concurrency" yaml:"concurrency"`
}

// BypassConfig controls the CDN bypass sub-probes
type BypassConfig struct {
	Resolvers   []string `mapstructure:"resolvers" yaml:"resolvers"`
	Timeout     string   `mapstructure:"timeout" yaml:"timeout"`
	Concurrency int      `mapstructure:"concurrency" yaml:"concurrency"`
}

// EndpointsConfig holds the third-party HTTP services the collectors call
type EndpointsConfig struct {
	GeoAPI   string `mapstructure:"geo_api" yaml:"geo_api"`
	CTSearch string `mapstructure:"ct_search" yaml:"ct_search"`
}

// RateLimitConfig controls the injected per-caller analyze limiter
type RateLimitConfig struct {
	PerMinute int `mapstructure:"per_minute" yaml:"per_minute"`
	Burst     int `mapstructure:"burst" yaml:"burst"`
}

// Load reads and parses configuration from a YAML file.
// If path is empty, searches for domainwatch.yaml in the current directory
// and ~/.config/domainwatch/
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("domainwatch")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		homeDir, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "domainwatch"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path cannot be empty"))
	}

	if c.Model.Weight < 0 || c.Model.Weight > 1 {
		errs = append(errs, errors.New("model.weight must be in [0,1]"))
	}

	if c.Collectors.Concurrency <= 0 {
		errs = append(errs, errors.New("collectors.concurrency must be positive"))
	}

	if c.Bypass.Concurrency <= 0 {
		errs = append(errs, errors.New("bypass.concurrency must be positive"))
	}

	if len(c.Bypass.Resolvers) == 0 {
		errs = append(errs, errors.New("bypass.resolvers cannot be empty"))
	}

	for _, pair := range []struct {
		name, value string
	}{
		{"collectors.dns_timeout", c.Collectors.DNSTimeout},
		{"collectors.tls_timeout", c.Collectors.TLSTimeout},
		{"collectors.geo_timeout", c.Collectors.GeoTimeout},
		{"collectors.ct_timeout", c.Collectors.CTTimeout},
		{"collectors.whois_timeout", c.Collectors.WhoisTimeout},
		{"bypass.timeout", c.Bypass.Timeout},
	} {
		if _, err := time.ParseDuration(pair.value); err != nil {
			errs = append(errs, fmt.Errorf("%s is not a valid duration: %w", pair.name, err))
		}
	}

	if c.RateLimit.PerMinute < 0 {
		errs = append(errs, errors.New("rate_limit.per_minute cannot be negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Timeout parses a duration string from the config, falling back to the
// given default when the string is empty or malformed
func Timeout(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
