package config

import (
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"testing"
	"time"
)

type testAPIConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type testConfig struct {
	ServiceConfig `mapstructure:",squash"`
	API           testAPIConfig `mapstructure:"api"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestServiceConfigApplyDefaults(t *testing.T) {
	t.Run("empty environment defaults to production", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc"}
		cfg.ApplyDefaults()
		if cfg.Environment != "production" {
			t.Errorf("expected 'production', got %q", cfg.Environment)
		}
		if cfg.Logging.Level != "info" {
			t.Errorf("expected info level, got %q", cfg.Logging.Level)
		}
	})

	t.Run("debug raises log level", func(t *testing.T) {
		cfg := ServiceConfig{Name: "svc", Debug: true}
		cfg.ApplyDefaults()
		if cfg.Logging.Level != "debug" {
			t.Errorf("expected debug level, got %q", cfg.Logging.Level)
		}
	})
}

func TestServiceConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ServiceConfig
		wantErr bool
		errMsg  string
	}{
		{"valid", ServiceConfig{Name: "svc", Environment: "production"}, false, ""},
		{"missing name", ServiceConfig{Environment: "production"}, true, "config.name is required"},
		{"invalid environment", ServiceConfig{Name: "svc", Environment: "qa"}, true, "config.environment must be one of"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.ApplyDefaults()
			err := tc.cfg.Validate()
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !strings.Contains(err.Error(), tc.errMsg) {
					t.Errorf("expected error containing %q, got %q", tc.errMsg, err.Error())
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoadConfigWithYAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
name: piholectl
environment: staging
api:
  base_url: http://pi.hole:8080
  timeout: 5s
`)

	var cfg testConfig
	if err := LoadConfig("piholectl", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if cfg.Name != "piholectl" {
		t.Errorf("expected name 'piholectl', got %q", cfg.Name)
	}
	if cfg.Environment != "staging" {
		t.Errorf("expected environment 'staging', got %q", cfg.Environment)
	}
	if cfg.API.BaseURL != "http://pi.hole:8080" {
		t.Errorf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %s", cfg.API.Timeout)
	}
}

func TestLoadConfigEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
api:
  base_url: http://from-file
`)
	t.Setenv("API_BASE_URL", "http://from-env:8080")

	var cfg testConfig
	if err := LoadConfig("piholectl", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.API.BaseURL != "http://from-env:8080" {
		t.Errorf("environment should override file, got %q", cfg.API.BaseURL)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", "name: x\n")

	var cfg testConfig
	err := LoadConfig("piholectl", &cfg,
		WithConfigFile(path),
		WithDefaults(map[string]any{"api.timeout": "12s"}),
	)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.API.Timeout != 12*time.Second {
		t.Errorf("expected default timeout, got %s", cfg.API.Timeout)
	}
}

func TestLoadConfigEnvFile(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "PIHOLEDASH_TEST_ENVFILE_KEY=loaded\n")
	t.Cleanup(func() { os.Unsetenv("PIHOLEDASH_TEST_ENVFILE_KEY") })

	var out map[string]any
	if err := LoadConfig("piholectl", &out, WithEnvFile(envPath), WithFileSystem(&RealFileSystem{})); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if os.Getenv("PIHOLEDASH_TEST_ENVFILE_KEY") != "loaded" {
		t.Error("expected .env file to be loaded into the environment")
	}
}

func TestLoadConfigMissingExplicitFile(t *testing.T) {
	var cfg testConfig
	err := LoadConfig("piholectl", &cfg, WithConfigFile("/nonexistent/path.yml"))
	if err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestResolverWithMockFS(t *testing.T) {
	fs := &mockFS{files: map[string]bool{
		"./cmd/piholectl/config.yml": true,
		"./.env":                     true,
	}}
	resolver := &Resolver{FileSystem: fs}
	files := resolver.ResolveFiles("piholectl", LoaderConfig{})
	if files.ConfigFile != "./cmd/piholectl/config.yml" {
		t.Errorf("unexpected config file %q", files.ConfigFile)
	}
	if files.EnvFile != "./.env" {
		t.Errorf("unexpected env file %q", files.EnvFile)
	}

	explicit := resolver.ResolveFiles("piholectl", LoaderConfig{ConfigFile: "/etc/x.yml"})
	if explicit.ConfigFile != "/etc/x.yml" {
		t.Errorf("explicit path should win, got %q", explicit.ConfigFile)
	}
}

type mockFS struct {
	files map[string]bool
}

func (m *mockFS) Exists(path string) bool  { return m.files[path] }
func (m *mockFS) LoadEnv(path string) error { return nil }

func TestStructKeys(t *testing.T) {
	type tls struct {
		CAFile string `mapstructure:"ca_file"`
	}
	type api struct {
		BaseURL string            `mapstructure:"base_url"`
		Headers map[string]string `mapstructure:"headers"`
		TLS     *tls              `mapstructure:"tls"`
		Auth    *tls              `mapstructure:"-"`
		Tags    []string
		hidden  string
	}
	type cfg struct {
		ServiceConfig `mapstructure:",squash"`
		API           api `mapstructure:"api"`
	}

	got := structKeys(reflect.TypeOf(&cfg{}), "")
	for _, want := range []string{"name", "environment", "debug", "logging.level", "api.base_url", "api.tls.ca_file", "api.tags"} {
		if !slices.Contains(got, want) {
			t.Errorf("expected key %q in %v", want, got)
		}
	}
	for _, unwanted := range []string{"api.headers", "api.auth.ca_file", "api.hidden", "logging"} {
		if slices.Contains(got, unwanted) {
			t.Errorf("unexpected key %q in %v", unwanted, got)
		}
	}
}

func TestEnvName(t *testing.T) {
	if got := envName("api.base_url"); got != "API_BASE_URL" {
		t.Errorf("expected API_BASE_URL, got %q", got)
	}
}

func TestLoadConfigIgnoresUnrelatedEnv(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "config.yml", `
api:
  base_url: http://from-file
  timeout: 3s
`)
	t.Setenv("API_BASE_URL", "http://from-env:8080")
	for _, name := range []string{"API_TIMEOUT_MS", "API_TOKEN_FILE", "API_BASE", "LOGGING", "API"} {
		t.Setenv(name, "5000")
	}

	var cfg testConfig
	if err := LoadConfig("piholectl", &cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.API.BaseURL != "http://from-env:8080" {
		t.Errorf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 3*time.Second {
		t.Errorf("expected 3s timeout, got %s", cfg.API.Timeout)
	}
}

func TestLoadConfigEnvWithoutFile(t *testing.T) {
	t.Setenv("API_TIMEOUT", "7s")
	t.Setenv("LOGGING_LEVEL", "debug")

	var cfg testConfig
	if err := LoadConfig("piholectl", &cfg, WithFileSystem(&mockFS{})); err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.API.Timeout != 7*time.Second {
		t.Errorf("expected 7s timeout, got %s", cfg.API.Timeout)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %q", cfg.Logging.Level)
	}
}
