package httpclient

import (
	"fmt"
	"net/url"
	"time"
)

const (
	defaultTimeout = 30 * time.Second

	// HeaderRequestID carries the per-call request id.
	HeaderRequestID = "X-Request-ID"
)

// Config configures the transport. It is read once at construction and never
// changes for the life of the Client.
type Config struct {
	// BaseURL is prepended verbatim to every request path. Empty is allowed.
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`

	// Timeout bounds a single call. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Headers are default headers applied to every request. Request headers
	// take precedence.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// Token, when set, is sent as a bearer token unless Auth is set.
	Token string `yaml:"token" mapstructure:"token"`

	// Auth configures authentication applied to every request.
	Auth *AuthConfig `yaml:"-" mapstructure:"-"`

	// TLS configures the transport's TLS settings.
	TLS *TLSConfig `yaml:"tls" mapstructure:"tls"`

	// DisableRequestID stops the client from generating X-Request-ID headers.
	DisableRequestID bool `yaml:"disable_request_id" mapstructure:"disable_request_id"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
	if c.Auth == nil && c.Token != "" {
		c.Auth = BearerAuth(c.Token)
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("httpclient: invalid base_url: %w", err)
		}
		if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("httpclient: base_url must be an absolute http(s) URL, got %q", c.BaseURL)
		}
	}
	if c.TLS != nil {
		if err := c.TLS.Validate(); err != nil {
			return err
		}
	}
	return nil
}
