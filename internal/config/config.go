package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/gradethread/gradethread/internal/notify"
	"github.com/gradethread/gradethread/internal/vision"
	"github.com/gradethread/gradethread/pkg/database"
	"github.com/gradethread/gradethread/pkg/storage"
)

const (
	BaseConfigFile       = "config.toml"
	OverlayConfigPattern = "config.%s.toml"

	EnvGradeThreadEnv             = "GRADETHREAD_ENV"
	EnvGradeThreadShutdownTimeout = "GRADETHREAD_SHUTDOWN_TIMEOUT"
	EnvGradeThreadVersion         = "GRADETHREAD_VERSION"
)

var databaseEnv = &database.Env{
	Host:            "GRADETHREAD_DB_HOST",
	Port:            "GRADETHREAD_DB_PORT",
	Name:            "GRADETHREAD_DB_NAME",
	User:            "GRADETHREAD_DB_USER",
	Password:        "GRADETHREAD_DB_PASSWORD",
	SSLMode:         "GRADETHREAD_DB_SSL_MODE",
	MaxOpenConns:    "GRADETHREAD_DB_MAX_OPEN_CONNS",
	MaxIdleConns:    "GRADETHREAD_DB_MAX_IDLE_CONNS",
	ConnMaxLifetime: "GRADETHREAD_DB_CONN_MAX_LIFETIME",
	ConnTimeout:     "GRADETHREAD_DB_CONN_TIMEOUT",
}

var storageEnv = &storage.Env{
	ContainerName:    "GRADETHREAD_STORAGE_CONTAINER_NAME",
	ConnectionString: "GRADETHREAD_STORAGE_CONNECTION_STRING",
	MaxListSize:      "GRADETHREAD_STORAGE_MAX_LIST_SIZE",
}

var visionEnv = &vision.Env{
	BaseURL:        "GRADETHREAD_VISION_BASE_URL",
	APIKey:         "GRADETHREAD_VISION_API_KEY",
	Model:          "GRADETHREAD_VISION_MODEL",
	RequestTimeout: "GRADETHREAD_VISION_REQUEST_TIMEOUT",
}

var notifyEnv = &notify.Env{
	Endpoint: "GRADETHREAD_NOTIFY_ENDPOINT",
	APIKey:   "GRADETHREAD_NOTIFY_API_KEY",
	From:     "GRADETHREAD_NOTIFY_FROM",
}

// Config is the root configuration for the GradeThread service.
type Config struct {
	Server          ServerConfig    `toml:"server"`
	Database        database.Config `toml:"database"`
	Storage         storage.Config  `toml:"storage"`
	Vision          vision.Config   `toml:"vision"`
	Notify          notify.Config   `toml:"notify"`
	API             APIConfig       `toml:"api"`
	ShutdownTimeout string          `toml:"shutdown_timeout"`
	Version         string          `toml:"version"`
}

// Env returns the GRADETHREAD_ENV value, defaulting to "local".
func (c *Config) Env() string {
	if env := os.Getenv(EnvGradeThreadEnv); env != "" {
		return env
	}
	return "local"
}

// ShutdownTimeoutDuration returns ShutdownTimeout as a time.Duration.
func (c *Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// Load reads the base config (if present), applies any environment overlay,
// and finalizes all values. If no config.toml exists, defaults and environment
// variables provide all configuration.
func Load() (*Config, error) {
	cfg := &Config{}

	if _, err := os.Stat(BaseConfigFile); err == nil {
		loaded, err := load(BaseConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if path := overlayPath(); path != "" {
		overlay, err := load(path)
		if err != nil {
			return nil, fmt.Errorf("load overlay %s: %w", path, err)
		}
		cfg.Merge(overlay)
	}

	if err := cfg.finalize(); err != nil {
		return nil, fmt.Errorf("finalize config: %w", err)
	}

	return cfg, nil
}

// Merge overwrites non-zero fields from overlay across all sub-configs.
func (c *Config) Merge(overlay *Config) {
	if overlay.ShutdownTimeout != "" {
		c.ShutdownTimeout = overlay.ShutdownTimeout
	}
	if overlay.Version != "" {
		c.Version = overlay.Version
	}
	c.Server.Merge(&overlay.Server)
	c.Database.Merge(&overlay.Database)
	c.Storage.Merge(&overlay.Storage)
	c.Vision.Merge(&overlay.Vision)
	c.Notify.Merge(&overlay.Notify)
	c.API.Merge(&overlay.API)
}

func (c *Config) finalize() error {
	c.loadDefaults()
	c.loadEnv()

	if err := c.validate(); err != nil {
		return err
	}
	if err := c.Server.Finalize(); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	if err := c.Database.Finalize(databaseEnv); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if err := c.Storage.Finalize(storageEnv); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Vision.Finalize(visionEnv); err != nil {
		return fmt.Errorf("vision: %w", err)
	}
	if err := c.Notify.Finalize(notifyEnv); err != nil {
		return fmt.Errorf("notify: %w", err)
	}
	if err := c.API.Finalize(); err != nil {
		return fmt.Errorf("api: %w", err)
	}
	return nil
}

func (c *Config) loadDefaults() {
	if c.ShutdownTimeout == "" {
		c.ShutdownTimeout = "30s"
	}
	if c.Version == "" {
		c.Version = "0.1.0"
	}
}

func (c *Config) loadEnv() {
	if v := os.Getenv(EnvGradeThreadShutdownTimeout); v != "" {
		c.ShutdownTimeout = v
	}
	if v := os.Getenv(EnvGradeThreadVersion); v != "" {
		c.Version = v
	}
}

func (c *Config) validate() error {
	if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
		return fmt.Errorf("invalid shutdown_timeout: %w", err)
	}
	return nil
}

func load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return &cfg, nil
}

func overlayPath() string {
	if env := os.Getenv(EnvGradeThreadEnv); env != "" {
		path := fmt.Sprintf(OverlayConfigPattern, env)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
