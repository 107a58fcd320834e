package platform

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/islands/pkg/core"
	"github.com/aretw0/islands/pkg/deferred"
)

// Config is the YAML form of a site configuration.
type Config struct {
	Addr            string          `yaml:"addr"`
	Locales         []string        `yaml:"locales"`
	Theme           core.Theme      `yaml:"theme"`
	ScrollThreshold float64         `yaml:"scroll_threshold"`
	BundleURL       string          `yaml:"bundle_url"`
	Consent         ConsentConfig   `yaml:"consent"`
	Telemetry       TelemetryConfig `yaml:"telemetry"`
	Islands         []IslandConfig  `yaml:"islands"`
}

// ConsentConfig selects the consent adapter.
type ConsentConfig struct {
	// File enables the file adapter. Relative paths are resolved against the
	// configuration file.
	File     string        `yaml:"file"`
	Watch    bool          `yaml:"watch"`
	Debounce time.Duration `yaml:"debounce"`
	// Initial seeds the memory adapter when no file is set.
	Initial *bool `yaml:"initial"`
}

// TelemetryConfig selects the telemetry transports.
type TelemetryConfig struct {
	Transports []string          `yaml:"transports"`
	Collector  string            `yaml:"collector"`
	Headers    map[string]string `yaml:"headers"`
	Buffer     int               `yaml:"buffer"`
}

// IslandConfig declares a deferred island.
type IslandConfig struct {
	Name              string   `yaml:"name"`
	Routes            []string `yaml:"routes"`
	RequiresAnalytics bool     `yaml:"requires_analytics"`
}

// LoadConfig reads a YAML configuration file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if cfg.Consent.File != "" && !filepath.IsAbs(cfg.Consent.File) {
		cfg.Consent.File = filepath.Join(filepath.Dir(path), cfg.Consent.File)
	}
	switch cfg.Theme {
	case "", core.ThemeLight, core.ThemeDark, core.ThemeSystem:
	default:
		return nil, fmt.Errorf("config %s: unknown theme %q", path, cfg.Theme)
	}
	return &cfg, nil
}

// Options turns the configuration into Site options.
func (c *Config) Options() []Option {
	var opts []Option
	if len(c.Locales) > 0 {
		opts = append(opts, WithLocales(c.Locales...))
	}
	if c.Theme != "" {
		opts = append(opts, WithTheme(c.Theme))
	}
	if c.ScrollThreshold > 0 {
		opts = append(opts, WithScrollThreshold(c.ScrollThreshold))
	}
	if c.BundleURL != "" {
		opts = append(opts, WithBundleURL(c.BundleURL))
	}

	if c.Consent.File != "" {
		opts = append(opts, WithConsentFile(c.Consent.File), WithWatch(c.Consent.Watch))
		if c.Consent.Debounce > 0 {
			opts = append(opts, WithConsentDebounce(c.Consent.Debounce))
		}
	} else if c.Consent.Initial != nil {
		opts = append(opts, WithInitialConsent(*c.Consent.Initial))
	}

	if len(c.Telemetry.Transports) > 0 {
		opts = append(opts, WithTransports(c.Telemetry.Transports...))
	}
	if c.Telemetry.Collector != "" {
		opts = append(opts, WithCollector(c.Telemetry.Collector, c.Telemetry.Headers))
	}
	if c.Telemetry.Buffer > 0 {
		opts = append(opts, WithEventBuffer(c.Telemetry.Buffer))
	}

	for _, island := range c.Islands {
		opts = append(opts, WithIsland(deferred.Island{
			Name:              island.Name,
			Routes:            island.Routes,
			RequiresAnalytics: island.RequiresAnalytics,
		}))
	}
	return opts
}
