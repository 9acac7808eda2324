package dbmanager

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/pharmgate/internal/common"
	"github.com/dmitrijs2005/pharmgate/internal/models"
)

// CreateDatabase creates p.Database when it does not exist yet, connects to
// it and applies migrations. Calling it again for an existing database only
// connects and re-runs the (no-op) migrations.
func (m *Manager) CreateDatabase(ctx context.Context, p models.ConnectionProfile) error {
	if err := ValidateIdentifier(p.Database); err != nil {
		return err
	}
	if !m.provisioning.TryAcquire(1) {
		return common.ErrProvisioningInProgress
	}
	defer m.provisioning.Release(1)

	log := m.log.With("op", "create_database", "database", p.Database)

	admin, err := openPool(ctx, p.WithDatabase(m.opts.AdminDatabase), m.pool(1))
	if err != nil {
		return fmt.Errorf("open admin connection: %w", err)
	}

	created, err := m.createDatabaseIfAbsent(ctx, admin, p.Database)
	admin.Close()
	if err != nil {
		log.Error(ctx, "create database failed", "error", err)
		return err
	}
	if created {
		log.Info(ctx, "database created")
	} else {
		log.Info(ctx, "database already exists")
	}

	if err := m.Connect(ctx, p); err != nil {
		return err
	}

	db, err := m.DB()
	if err != nil {
		return err
	}
	if m.migrator != nil {
		if err := m.migrator.RunMigrations(ctx, db); err != nil {
			log.Error(ctx, "migrations failed", "error", err)
			return fmt.Errorf("apply migrations: %w", err)
		}
	}

	log.Info(ctx, "schema is up to date")
	return nil
}

func (m *Manager) createDatabaseIfAbsent(ctx context.Context, admin *conn, name string) (bool, error) {
	var exists bool
	err := admin.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_database WHERE datname = $1)`, name).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check database %q: %w", name, err)
	}
	if exists {
		return false, nil
	}

	if _, err := admin.db.ExecContext(ctx, "CREATE DATABASE "+quoteIdent(name)); err != nil {
		return false, fmt.Errorf("create database %q: %w", name, err)
	}
	return true, nil
}

// grantStep is one statement of the read-only role setup.
type grantStep struct {
	name string
	sql  string
}

func readOnlyGrants(database, role, owner string) []grantStep {
	db, r := quoteIdent(database), quoteIdent(role)
	defaults := "ALTER DEFAULT PRIVILEGES"
	if owner != "" {
		defaults += " FOR ROLE " + quoteIdent(owner)
	}
	return []grantStep{
		{name: "grant connect", sql: fmt.Sprintf("GRANT CONNECT ON DATABASE %s TO %s", db, r)},
		{name: "grant usage", sql: fmt.Sprintf("GRANT USAGE ON SCHEMA public TO %s", r)},
		{name: "grant select", sql: fmt.Sprintf("GRANT SELECT ON ALL TABLES IN SCHEMA public TO %s", r)},
		{name: "default privileges", sql: fmt.Sprintf("%s IN SCHEMA public GRANT SELECT ON TABLES TO %s", defaults, r)},
	}
}

// CreateReadOnlyRole makes sure roleName exists with LOGIN and then applies
// the SELECT-only grants on adminProfile.Database. The statements run one by
// one; the first failure is returned and earlier grants stay in place.
func (m *Manager) CreateReadOnlyRole(ctx context.Context, adminProfile models.ConnectionProfile, roleName, rolePassword string) error {
	if err := ValidateIdentifier(roleName); err != nil {
		return err
	}
	if err := ValidateIdentifier(adminProfile.Database); err != nil {
		return err
	}
	if rolePassword == "" {
		return fmt.Errorf("%w: role password is empty", common.ErrValidation)
	}
	if m.opts.TableOwner != "" {
		if err := ValidateIdentifier(m.opts.TableOwner); err != nil {
			return err
		}
	}
	if !m.provisioning.TryAcquire(1) {
		return common.ErrProvisioningInProgress
	}
	defer m.provisioning.Release(1)

	log := m.log.With("op", "create_readonly_role", "role", roleName, "database", adminProfile.Database)

	admin, err := openPool(ctx, adminProfile, m.pool(1))
	if err != nil {
		return fmt.Errorf("open admin connection: %w", err)
	}
	defer admin.Close()

	var exists bool
	err = admin.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM pg_roles WHERE rolname = $1)`, roleName).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check role %q: %w", roleName, err)
	}

	if !exists {
		stmt := fmt.Sprintf("CREATE ROLE %s WITH LOGIN PASSWORD %s", quoteIdent(roleName), quoteLiteral(rolePassword))
		if _, err := admin.db.ExecContext(ctx, stmt); err != nil {
			log.Error(ctx, "create role failed", "error", err)
			return fmt.Errorf("create role %q: %w", roleName, err)
		}
		log.Info(ctx, "role created")
	}

	for _, step := range readOnlyGrants(adminProfile.Database, roleName, m.opts.TableOwner) {
		if _, err := admin.db.ExecContext(ctx, step.sql); err != nil {
			log.Error(ctx, "grant failed", "step", step.name, "error", err)
			return fmt.Errorf("%s: %w", step.name, err)
		}
	}

	log.Info(ctx, "read-only role is ready")
	return nil
}
