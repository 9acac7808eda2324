package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config holds runtime settings.
//
// SettingsFile and KeyFile default to files inside ConfigDir when left
// empty. ProbeTimeout bounds every liveness query.
type Config struct {
	ConfigDir         string
	SettingsFile      string
	KeyFile           string
	DefaultHost       string
	DefaultPort       int
	AdminDatabase     string
	ReadOnlyRole      string
	TableOwner        string
	ProbeTimeout      time.Duration
	MaxConns          int32
	PasswordScheme    string
	MinPasswordLength int
	LogLevel          string
}

const defaultDirName = ".pharmacy_manager"

// LoadDefaults populates c with development defaults.
func (c *Config) LoadDefaults() {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	c.ConfigDir = filepath.Join(home, defaultDirName)
	c.DefaultHost = "localhost"
	c.DefaultPort = 5432
	c.AdminDatabase = "postgres"
	c.ReadOnlyRole = "pharmacy_user"
	c.ProbeTimeout = 5 * time.Second
	c.MaxConns = 4
	c.PasswordScheme = "argon2id"
	c.MinPasswordLength = 6
	c.LogLevel = "info"
}

// Load builds a Config from defaults, the JSON file, the environment and
// the command-line args (usually os.Args[1:]).
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg, os.Environ()); err != nil {
		return nil, fmt.Errorf("env config: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}

	cfg.resolvePaths()
	return cfg, cfg.Validate()
}

// Validate rejects values no component can work with.
func (c *Config) Validate() error {
	switch {
	case c.ConfigDir == "":
		return fmt.Errorf("config dir is empty")
	case c.DefaultPort <= 0 || c.DefaultPort > 65535:
		return fmt.Errorf("port %d out of range", c.DefaultPort)
	case c.ProbeTimeout <= 0:
		return fmt.Errorf("probe timeout must be positive")
	case c.MaxConns <= 0:
		return fmt.Errorf("max conns must be positive")
	case c.MinPasswordLength < 1:
		return fmt.Errorf("min password length must be at least 1")
	}
	return nil
}

func (c *Config) resolvePaths() {
	if c.SettingsFile == "" {
		c.SettingsFile = filepath.Join(c.ConfigDir, "config.json")
	}
	if c.KeyFile == "" {
		c.KeyFile = filepath.Join(c.ConfigDir, "secret.key")
	}
}
