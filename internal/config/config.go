// Package config loads the provider's settings from environment variables.
//
// Environment Variables:
//   - BASE_URL: scheme and host used for every backend URL (required)
//   - LISTEN_ADDR: HTTP listen address (default: 0.0.0.0:8000)
//   - LABEL_PREFIX: namespace of the routing labels (default: routing)
//   - DISCOVERY_TIMEOUT: bound on a single container engine query (default: 10s)
//   - SKIP_INVALID_CONTAINERS: skip unusable containers instead of failing (default: false)
//   - LOG_LEVEL: logrus level (default: info)
//   - LOG_FORMAT: text or json (default: text)
//
// A .env file in the working directory is honoured when present.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/technophil98/traefik-docker-http-provider-server/internal/core/domain"
)

type Config struct {
	ListenAddr            string
	BaseURL               *url.URL
	LabelPrefix           string
	DiscoveryTimeout      time.Duration
	SkipInvalidContainers bool
	LogLevel              string
	LogFormat             string
}

// Load reads the configuration from the environment, after loading a .env
// file if one exists. The result is validated.
func Load() (*Config, error) {
	_ = godotenv.Load()

	rawBaseURL := os.Getenv("BASE_URL")
	if rawBaseURL == "" {
		return nil, fmt.Errorf("cannot get base URL: BASE_URL environment variable is required")
	}
	baseURL, err := url.Parse(rawBaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid BASE_URL: %w", err)
	}

	timeout, err := getDurationEnv("DISCOVERY_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		ListenAddr:            getEnv("LISTEN_ADDR", "0.0.0.0:8000"),
		BaseURL:               baseURL,
		LabelPrefix:           getEnv("LABEL_PREFIX", domain.DefaultLabelPrefix),
		DiscoveryTimeout:      timeout,
		SkipInvalidContainers: getBoolEnv("SKIP_INVALID_CONTAINERS", false),
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		LogFormat:             getEnv("LOG_FORMAT", "text"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the base URL can carry a per-service port and that
// the logging settings are known.
func (c *Config) Validate() error {
	if c.BaseURL == nil || c.BaseURL.Scheme == "" || c.BaseURL.Opaque != "" || c.BaseURL.Hostname() == "" {
		return fmt.Errorf("BASE_URL must be an absolute URL with a scheme and a host, e.g. http://192.168.1.100")
	}
	if c.BaseURL.Scheme == "file" {
		return fmt.Errorf("BASE_URL scheme %q cannot carry a port", c.BaseURL.Scheme)
	}
	if c.LabelPrefix == "" {
		return fmt.Errorf("LABEL_PREFIX must not be empty")
	}
	if c.DiscoveryTimeout < 0 {
		return fmt.Errorf("DISCOVERY_TIMEOUT must not be negative")
	}
	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("LOG_FORMAT must be 'text' or 'json'")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}
