package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultConfig returns a Config with sensible default values
func DefaultConfig() *Config {
	return &Config{
		DBPath:     "domainwatch.db",
		DefaultTLD: "com",
		Model: ModelConfig{
			Path:   "threat_model.json",
			Weight: 0.6,
		},
		Collectors: CollectorsConfig{
			DNSTimeout:   "3s",
			TLSTimeout:   "5s",
			GeoTimeout:   "8s",
			CTTimeout:    "10s",
			WhoisTimeout: "10s",
			Concurrency:  5,
		},
		Bypass: BypassConfig{
			Resolvers:   []string{"8.8.8.8", "1.1.1.1", "208.67.222.222"},
			Timeout:     "2s",
			Concurrency: 3,
		},
		Endpoints: EndpointsConfig{
			GeoAPI:   "https://ipapi.co",
			CTSearch: "https://crt.sh",
		},
		RateLimit: RateLimitConfig{
			PerMinute: 30,
			Burst:     5,
		},
	}
}

// WriteDefault writes a default configuration to the specified path
func WriteDefault(path string) error {
	cfg := DefaultConfig()

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal default config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
