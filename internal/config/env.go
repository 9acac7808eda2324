package config

import (
	"errors"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const envPrefix = "PHARMGATE_"

// envConfig mirrors Config for caarlos0/env. Nil pointers mean the variable
// was not set.
type envConfig struct {
	ConfigDir         *string        `env:"CONFIG_DIR"`
	SettingsFile      *string        `env:"SETTINGS_FILE"`
	KeyFile           *string        `env:"KEY_FILE"`
	DefaultHost       *string        `env:"DB_HOST"`
	DefaultPort       *int           `env:"DB_PORT"`
	AdminDatabase     *string        `env:"ADMIN_DATABASE"`
	ReadOnlyRole      *string        `env:"READONLY_ROLE"`
	TableOwner        *string        `env:"TABLE_OWNER"`
	ProbeTimeout      *time.Duration `env:"PROBE_TIMEOUT"`
	MaxConns          *int32         `env:"MAX_CONNS"`
	PasswordScheme    *string        `env:"PASSWORD_SCHEME"`
	MinPasswordLength *int           `env:"MIN_PASSWORD_LENGTH"`
	LogLevel          *string        `env:"LOG_LEVEL"`
}

// parseEnv overlays cfg with PHARMGATE_* variables. Values from the .env
// file are used only where the real environment has none.
func parseEnv(cfg *Config, environ []string) error {
	vars := env.ToMap(environ)

	dotenvPath := vars[envPrefix+"ENV_FILE"]
	if dotenvPath == "" {
		dotenvPath = ".env"
	}
	fileVars, err := godotenv.Read(dotenvPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	for k, v := range fileVars {
		if _, ok := vars[k]; !ok {
			vars[k] = v
		}
	}

	var ec envConfig
	if err := env.ParseWithOptions(&ec, env.Options{Prefix: envPrefix, Environment: vars}); err != nil {
		return err
	}

	setIf(&cfg.ConfigDir, ec.ConfigDir)
	setIf(&cfg.SettingsFile, ec.SettingsFile)
	setIf(&cfg.KeyFile, ec.KeyFile)
	setIf(&cfg.DefaultHost, ec.DefaultHost)
	setIf(&cfg.DefaultPort, ec.DefaultPort)
	setIf(&cfg.AdminDatabase, ec.AdminDatabase)
	setIf(&cfg.ReadOnlyRole, ec.ReadOnlyRole)
	setIf(&cfg.TableOwner, ec.TableOwner)
	setIf(&cfg.ProbeTimeout, ec.ProbeTimeout)
	setIf(&cfg.MaxConns, ec.MaxConns)
	setIf(&cfg.PasswordScheme, ec.PasswordScheme)
	setIf(&cfg.MinPasswordLength, ec.MinPasswordLength)
	setIf(&cfg.LogLevel, ec.LogLevel)

	return nil
}
