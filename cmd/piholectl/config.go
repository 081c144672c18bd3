package main

import (
	"fmt"
	"time"

	"github.com/kbukum/piholedash/config"
	"github.com/kbukum/piholedash/httpclient"
	"github.com/kbukum/piholedash/observability"
	"github.com/kbukum/piholedash/version"
)

const serviceName = "piholectl"

// Config is the piholectl configuration, read from config.yml, .env and the
// environment (API_BASE_URL, API_TOKEN, TELEMETRY_ENABLED, ...).
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	API       httpclient.Config    `yaml:"api" mapstructure:"api"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
	Dashboard DashboardConfig      `yaml:"dashboard" mapstructure:"dashboard"`

	// Retries is the number of extra attempts for failed idempotent calls.
	Retries int `yaml:"retries" mapstructure:"retries"`
}

// DashboardConfig locates the web UI for deep links.
type DashboardConfig struct {
	// URL is where the dashboard is served. Defaults to the API base URL.
	URL string `yaml:"url" mapstructure:"url"`
}

// ApplyDefaults fills zero values.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	c.ServiceConfig.ApplyDefaults()
	c.API.ApplyDefaults()
	if c.API.Headers == nil {
		c.API.Headers = map[string]string{}
	}
	if _, ok := c.API.Headers["User-Agent"]; !ok {
		c.API.Headers["User-Agent"] = version.UserAgent(serviceName)
	}
	if c.Dashboard.URL == "" {
		c.Dashboard.URL = c.API.BaseURL
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.API.Validate(); err != nil {
		return fmt.Errorf("config.api: %w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("config.telemetry: %w", err)
	}
	if c.Retries < 0 {
		return fmt.Errorf("config.retries must not be negative (got: %d)", c.Retries)
	}
	return nil
}

// overrides are global flags that win over every other source.
type overrides struct {
	configFile string
	envFile    string
	baseURL    string
	token      string
	timeout    time.Duration
	retries    int
	verbose    bool
	set        func(name string) bool
}

// loadConfig reads configuration and applies flag overrides.
func loadConfig(o overrides) (*Config, error) {
	var opts []config.LoaderOption
	if o.configFile != "" {
		opts = append(opts, config.WithConfigFile(o.configFile))
	}
	if o.envFile != "" {
		opts = append(opts, config.WithEnvFile(o.envFile))
	}
	opts = append(opts, config.WithDefaults(map[string]any{
		"name":           serviceName,
		"environment":    "production",
		"logging.format": "console",
		"logging.level":  "warn",
	}))

	cfg := &Config{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}

	if o.set("base-url") {
		cfg.API.BaseURL = o.baseURL
	}
	if o.set("token") {
		cfg.API.Token = o.token
	}
	if o.set("timeout") {
		cfg.API.Timeout = o.timeout
	}
	if o.set("retries") {
		cfg.Retries = o.retries
	}
	if o.verbose {
		cfg.Debug = true
		cfg.Logging.Level = "debug"
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}
