// Package repomanager provides the PostgreSQL RepositoryManager, wiring
// together repository constructors and goose migrations.
package repomanager

import (
	"context"
	"database/sql"
	"sync"

	"github.com/dmitrijs2005/pharmgate/internal/dbx"
	"github.com/dmitrijs2005/pharmgate/internal/migrations"
	"github.com/dmitrijs2005/pharmgate/internal/repositories/auditlog"
	"github.com/dmitrijs2005/pharmgate/internal/repositories/employees"
	"github.com/dmitrijs2005/pharmgate/internal/repositories/users"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Employees(db dbx.DBTX) employees.Repository {
	return employees.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) AuditLog(db dbx.DBTX) auditlog.Repository {
	return auditlog.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

// RunMigrations applies the embedded migrations to db. Already-applied
// versions are skipped, so calling it on an up-to-date schema is a no-op.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}
