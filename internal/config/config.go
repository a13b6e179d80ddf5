// Package config loads the server configuration from defaults, an optional
// YAML file and PORTFOLIO_* environment variables.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
)

// EnvPrefix is the prefix of environment overrides. Nested keys are joined
// with a double underscore: PORTFOLIO_SERVER__ADDR -> server.addr.
const EnvPrefix = "PORTFOLIO_"

// Config is the full server configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	Content ContentConfig `koanf:"content"`
	Session SessionConfig `koanf:"session"`
	Visits  VisitsConfig  `koanf:"visits"`
	Admin   AdminConfig   `koanf:"admin"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Addr            string        `koanf:"addr"`
	Mode            string        `koanf:"mode"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// ContentConfig points at an optional catalog file.
type ContentConfig struct {
	File string `koanf:"file"`
}

// SessionConfig controls how long idle page state is kept.
type SessionConfig struct {
	TTL           time.Duration `koanf:"ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
}

// VisitsConfig controls the visit counter store.
type VisitsConfig struct {
	Enabled   bool          `koanf:"enabled"`
	DSN       string        `koanf:"dsn"`
	Retention time.Duration `koanf:"retention"`
}

// AdminConfig holds dashboard credentials. PasswordHash, when set, is a
// bcrypt hash and takes precedence over Password.
type AdminConfig struct {
	Username     string `koanf:"username"`
	Password     string `koanf:"password"`
	PasswordHash string `koanf:"password_hash"`
	Secret       string `koanf:"secret"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			Mode:            "release",
			ShutdownTimeout: 10 * time.Second,
		},
		Session: SessionConfig{
			TTL:           30 * time.Minute,
			SweepInterval: time.Minute,
		},
		Visits: VisitsConfig{
			Enabled:   true,
			DSN:       "file:visits?mode=memory&cache=shared",
			Retention: 365 * 24 * time.Hour,
		},
		Admin: AdminConfig{
			Username: "admin",
		},
	}
}

// Load reads configuration from the given YAML file if it exists, then
// overlays environment variables. The teacher-era PORT variable still sets
// the listen port.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return nil, errors.Wrapf(err, "reading config %s", path)
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "accessing config %s", path)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil); err != nil {
		return nil, errors.Wrap(err, "loading env overrides")
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, errors.Wrap(err, "unmarshalling config")
	}

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Addr = ":" + port
	}
	return cfg, nil
}

var validModes = map[string]bool{
	"debug":   true,
	"release": true,
	"test":    true,
}

// Validate checks that the configuration contains usable values.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if !validModes[c.Server.Mode] {
		return fmt.Errorf("invalid server.mode %q: must be one of debug, release, test", c.Server.Mode)
	}
	if c.Session.TTL <= 0 {
		return fmt.Errorf("session.ttl must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session.sweep_interval must be positive")
	}
	if c.Visits.Enabled && c.Visits.DSN == "" {
		return fmt.Errorf("visits.dsn is required when visits are enabled")
	}
	if c.Visits.Retention < 0 {
		return fmt.Errorf("visits.retention must not be negative")
	}
	return nil
}
