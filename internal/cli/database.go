package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pharmgate/internal/common"
	"github.com/dmitrijs2005/pharmgate/internal/models"
)

// getPassword is an indirection used to facilitate testing.
var getPassword = GetPassword

// promptProfile asks for a connection profile, offering the live or default
// values as defaults.
func (a *App) promptProfile(dbPrompt string) (models.ConnectionProfile, error) {
	def, ok := a.db.Profile()
	if !ok {
		def = models.ConnectionProfile{Host: a.config.DefaultHost, Port: a.config.DefaultPort, Username: "postgres"}
	}

	var (
		p   models.ConnectionProfile
		err error
	)
	if p.Host, err = GetTextDefault(a.reader, "Host", def.Host, a.out); err != nil {
		return p, err
	}
	if p.Port, err = GetInt(a.reader, "Port", def.Port, a.out); err != nil {
		return p, err
	}
	if p.Database, err = GetTextDefault(a.reader, dbPrompt, def.Database, a.out); err != nil {
		return p, err
	}
	if p.Username, err = GetTextDefault(a.reader, "Database user", def.Username, a.out); err != nil {
		return p, err
	}

	pw, err := getPassword(a.reader, "Database password", a.out)
	if err != nil {
		return p, err
	}
	p.Password = string(pw)
	common.WipeByteArray(pw)

	if p.Database == "" {
		return p, fmt.Errorf("%w: database name is required", common.ErrValidation)
	}
	return p, nil
}

// remember stores p when the operator asks for it.
func (a *App) remember(p models.ConnectionProfile) error {
	ok, err := GetYesNo(a.reader, "Remember this connection?", a.out)
	if err != nil || !ok {
		return err
	}
	p.Persisted = true
	if err := a.profiles.SaveProfile(p); err != nil {
		return fmt.Errorf("save connection: %w", err)
	}
	a.println("Connection saved; the password is stored encrypted.")
	return nil
}

// Connect connects to an existing database.
func (a *App) Connect(ctx context.Context) error {
	p, err := a.promptProfile("Database")
	if err != nil {
		return err
	}

	a.auth.Logout()
	if err := a.await(ctx, a.db.ConnectAsync(ctx, p), a.connectWait()); err != nil {
		return err
	}
	a.afterConnect(ctx)
	return a.remember(p)
}

// CreateDatabase creates the database when missing, connects to it and
// applies the schema.
func (a *App) CreateDatabase(ctx context.Context) error {
	p, err := a.promptProfile("New database name")
	if err != nil {
		return err
	}

	a.auth.Logout()
	a.printf("Provisioning %q...\n", p.Database)
	if err := a.await(ctx, a.db.CreateDatabaseAsync(ctx, p), 0); err != nil {
		return err
	}
	a.println("Database is ready.")
	a.afterConnect(ctx)
	return a.remember(p)
}

// ReadOnlyRole provisions the SELECT-only role with administrator database
// credentials, which are asked for separately from the live connection.
func (a *App) ReadOnlyRole(ctx context.Context) error {
	a.println("Enter administrator credentials for the target database.")
	admin, err := a.promptProfile("Database")
	if err != nil {
		return err
	}

	role, err := GetTextDefault(a.reader, "Read-only role name", a.config.ReadOnlyRole, a.out)
	if err != nil {
		return err
	}
	pw, err := getPassword(a.reader, "Password for the role", a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pw)

	if err := a.await(ctx, a.db.CreateReadOnlyRoleAsync(ctx, admin, role, string(pw)), 0); err != nil {
		return err
	}
	a.printf("Role %q can now read every table in %q.\n", role, admin.Database)
	return nil
}

func (a *App) Status(ctx context.Context) error {
	if a.db.IsConnected(ctx) {
		p, _ := a.db.Profile()
		a.printf("Database: connected to %s on %s:%d as %s\n", p.Database, p.Host, p.Port, p.Username)
	} else {
		a.printf("Database: %s\n", a.db.State())
	}

	if info, ok := a.auth.CurrentUserInfo(); ok {
		a.printf("Signed in: %s (%s, %s)\n", info.Username, info.EmployeeName, info.Role)
	} else {
		a.println("Signed in: no")
	}
	a.printf("Settings: %s\n", a.profiles.Path())
	return nil
}

// Disconnect signs out and closes the connection.
func (a *App) Disconnect(ctx context.Context) error {
	a.auth.Logout()
	a.db.Disconnect()
	a.println("Disconnected.")
	return nil
}

// Forget drops the remembered connection profile.
func (a *App) Forget(ctx context.Context) error {
	if err := a.profiles.ForgetProfile(); err != nil {
		return err
	}
	a.println("Saved connection removed.")
	return nil
}
