package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/pharmgate/internal/flagx"
	"github.com/dmitrijs2005/pharmgate/internal/timex"
)

// JsonConfig is the on-disk DTO. Pointer fields distinguish "absent" from
// a zero value so the file only overrides what it mentions.
type JsonConfig struct {
	ConfigDir         *string         `json:"config_dir"`
	SettingsFile      *string         `json:"settings_file"`
	KeyFile           *string         `json:"key_file"`
	DefaultHost       *string         `json:"default_host"`
	DefaultPort       *int            `json:"default_port"`
	AdminDatabase     *string         `json:"admin_database"`
	ReadOnlyRole      *string         `json:"read_only_role"`
	TableOwner        *string         `json:"table_owner"`
	ProbeTimeout      *timex.Duration `json:"probe_timeout"`
	MaxConns          *int32          `json:"max_conns"`
	PasswordScheme    *string         `json:"password_scheme"`
	MinPasswordLength *int            `json:"min_password_length"`
	LogLevel          *string         `json:"log_level"`
}

// parseJson overlays cfg with the file named by -c/-config, if any.
func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigFile(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	setIf(&cfg.ConfigDir, jc.ConfigDir)
	setIf(&cfg.SettingsFile, jc.SettingsFile)
	setIf(&cfg.KeyFile, jc.KeyFile)
	setIf(&cfg.DefaultHost, jc.DefaultHost)
	setIf(&cfg.DefaultPort, jc.DefaultPort)
	setIf(&cfg.AdminDatabase, jc.AdminDatabase)
	setIf(&cfg.ReadOnlyRole, jc.ReadOnlyRole)
	setIf(&cfg.TableOwner, jc.TableOwner)
	setIf(&cfg.MaxConns, jc.MaxConns)
	setIf(&cfg.PasswordScheme, jc.PasswordScheme)
	setIf(&cfg.MinPasswordLength, jc.MinPasswordLength)
	setIf(&cfg.LogLevel, jc.LogLevel)
	if jc.ProbeTimeout != nil {
		cfg.ProbeTimeout = jc.ProbeTimeout.Duration
	}

	return nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}
