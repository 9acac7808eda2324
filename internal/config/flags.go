package config

import (
	"flag"
	"io"
	"time"

	"github.com/dmitrijs2005/pharmgate/internal/flagx"
)

// parseFlags overlays cfg with the flags listed in the package doc. Unknown
// arguments are filtered out first so other layers can share the command line.
func parseFlags(cfg *Config, args []string) error {
	args = flagx.FilterArgs(args, []string{"-dir", "-host", "-port", "-admin-db", "-role", "-owner", "-t", "-scheme", "-l"})

	fs := flag.NewFlagSet("pharmgate", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.ConfigDir, "dir", cfg.ConfigDir, "directory for settings and key files")
	fs.StringVar(&cfg.DefaultHost, "host", cfg.DefaultHost, "default database host")
	fs.IntVar(&cfg.DefaultPort, "port", cfg.DefaultPort, "default database port")
	fs.StringVar(&cfg.AdminDatabase, "admin-db", cfg.AdminDatabase, "administrative database")
	fs.StringVar(&cfg.ReadOnlyRole, "role", cfg.ReadOnlyRole, "read-only role name")
	fs.StringVar(&cfg.TableOwner, "owner", cfg.TableOwner, "role owning application tables, for read-only default privileges")
	probe := fs.Int("t", int(cfg.ProbeTimeout.Seconds()), "liveness probe timeout (in seconds)")
	fs.StringVar(&cfg.PasswordScheme, "scheme", cfg.PasswordScheme, "password scheme for new hashes")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.ProbeTimeout = time.Duration(*probe) * time.Second
	return nil
}
