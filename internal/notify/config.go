package notify

import (
	"fmt"
	"net/url"
	"os"
)

// Config holds email provider settings. An empty endpoint disables email
// notifications entirely.
type Config struct {
	Endpoint string `toml:"endpoint"`
	APIKey   string `toml:"api_key"`
	From     string `toml:"from"`
}

// Env maps Config fields to environment variable names.
type Env struct {
	Endpoint string
	APIKey   string
	From     string
}

// Enabled reports whether an email provider is configured.
func (c *Config) Enabled() bool {
	return c.Endpoint != ""
}

// Finalize applies defaults, environment variable overrides, and validation.
func (c *Config) Finalize(env *Env) error {
	c.loadDefaults()
	c.loadEnv(env)
	return c.validate()
}

// Merge overwrites non-zero fields from overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.Endpoint != "" {
		c.Endpoint = overlay.Endpoint
	}
	if overlay.APIKey != "" {
		c.APIKey = overlay.APIKey
	}
	if overlay.From != "" {
		c.From = overlay.From
	}
}

func (c *Config) loadDefaults() {
	if c.From == "" {
		c.From = "grading@gradethread.com"
	}
}

func (c *Config) loadEnv(env *Env) {
	if env == nil {
		return
	}
	if v := os.Getenv(env.Endpoint); v != "" {
		c.Endpoint = v
	}
	if v := os.Getenv(env.APIKey); v != "" {
		c.APIKey = v
	}
	if v := os.Getenv(env.From); v != "" {
		c.From = v
	}
}

func (c *Config) validate() error {
	if c.Endpoint == "" {
		return nil
	}
	if _, err := url.Parse(c.Endpoint); err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	if c.APIKey == "" {
		return fmt.Errorf("api_key required when endpoint is set")
	}
	return nil
}
