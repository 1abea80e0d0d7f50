// Package config loads the balancer's environment-driven configuration
// via koanf, mirroring the defaults-then-env layering the logistics
// example repo's pkg/config uses for its own services.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "PREQUAL_"

// Config is the full set of operator-overridable settings.
type Config struct {
	ServerURLs    []string      `koanf:"server_urls"`
	QRif          float64       `koanf:"q_rif"`
	ProbeInterval time.Duration `koanf:"probe_interval"`
	ProbeK        int           `koanf:"probe_k"`
	ListenAddr    string        `koanf:"listen_addr"`
	LogLevel      string        `koanf:"log_level"`
	LogFilePath   string        `koanf:"log_file_path"`
}

// Load reads configuration from the process environment, with
// PREQUAL_-prefixed variables (e.g. PREQUAL_Q_RIF, PREQUAL_SERVER_URLS)
// overriding the defaults below.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := map[string]any{
		"server_urls":    "",
		"q_rif":          0.8,
		"probe_interval": 100 * time.Millisecond,
		"probe_k":        2,
		"listen_addr":    ":8080",
		"log_level":      "info",
		"log_file_path":  "",
	}
	if err := k.Load(confmap.Provider(defaults, "."), nil); err != nil {
		return nil, fmt.Errorf("load config defaults: %w", err)
	}

	err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil)
	if err != nil {
		return nil, fmt.Errorf("load config from environment: %w", err)
	}

	cfg := &Config{
		QRif:          k.Float64("q_rif"),
		ProbeInterval: k.Duration("probe_interval"),
		ProbeK:        k.Int("probe_k"),
		ListenAddr:    k.String("listen_addr"),
		LogLevel:      k.String("log_level"),
		LogFilePath:   k.String("log_file_path"),
	}
	cfg.ServerURLs = splitCommaList(k.String("server_urls"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects a config that cannot drive the balancer.
func (c *Config) Validate() error {
	if c.QRif < 0 || c.QRif > 1 {
		return fmt.Errorf("q_rif must be in [0, 1], got %v", c.QRif)
	}
	if c.ProbeK <= 0 {
		return fmt.Errorf("probe_k must be positive, got %d", c.ProbeK)
	}
	if c.ProbeInterval <= 0 {
		return fmt.Errorf("probe_interval must be positive, got %v", c.ProbeInterval)
	}
	return nil
}

func splitCommaList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
