// Package config loads runtime configuration for pharmgate.
//
// Sources & precedence (later wins)
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. A .env file (path from PHARMGATE_ENV_FILE, default ".env") merged
//     under the process environment, read through PHARMGATE_* variables.
//  4. Command-line flags.
//
// Supported flags
//
//	-dir string      directory for settings and key files
//	-host string     default database host
//	-port int        default database port
//	-admin-db string administrative database used for provisioning
//	-role string     name of the read-only database role
//	-owner string    role owning application tables; default privileges for
//	                 the read-only role are granted FOR this role
//	-t int           liveness probe timeout (seconds)
//	-scheme string   password scheme for new hashes (argon2id|sha256)
//	-l string        log level (debug|info|warn|error)
//
// # JSON schema
//
//	{
//	  "config_dir": "/home/me/.pharmacy_manager",
//	  "probe_timeout": "5s",
//	  "read_only_role": "pharmacy_user",
//	  "password_scheme": "argon2id"
//	}
package config
