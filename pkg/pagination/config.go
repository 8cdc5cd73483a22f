// Package pagination implements page requests, page results, and the
// size limits they are normalized against.
package pagination

import (
	"fmt"
	"os"
	"strconv"
)

// Config bounds page sizes for list endpoints.
type Config struct {
	DefaultPageSize int `toml:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size"`
}

// ConfigEnv names the environment variables that may override Config.
type ConfigEnv struct {
	DefaultPageSize string
	MaxPageSize     string
}

// Finalize fills defaults, applies environment overrides, and validates.
func (c *Config) Finalize(env *ConfigEnv) error {
	c.loadDefaults()
	if env != nil {
		c.loadEnv(env)
	}
	return c.validate()
}

// Merge copies non-zero overlay values into c.
func (c *Config) Merge(overlay *Config) {
	if overlay.DefaultPageSize != 0 {
		c.DefaultPageSize = overlay.DefaultPageSize
	}
	if overlay.MaxPageSize != 0 {
		c.MaxPageSize = overlay.MaxPageSize
	}
}

func (c *Config) loadDefaults() {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 20
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}
}

func (c *Config) loadEnv(env *ConfigEnv) {
	c.DefaultPageSize = envSize(env.DefaultPageSize, c.DefaultPageSize)
	c.MaxPageSize = envSize(env.MaxPageSize, c.MaxPageSize)
}

func (c *Config) validate() error {
	if c.DefaultPageSize < 1 {
		return fmt.Errorf("default_page_size must be positive")
	}
	if c.MaxPageSize < 1 {
		return fmt.Errorf("max_page_size must be positive")
	}
	if c.DefaultPageSize > c.MaxPageSize {
		return fmt.Errorf("default_page_size cannot exceed max_page_size")
	}
	return nil
}

func envSize(name string, current int) int {
	if name == "" {
		return current
	}
	v := os.Getenv(name)
	if v == "" {
		return current
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return current
	}
	return n
}
