package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/pharmgate/internal/dbx"
	"github.com/dmitrijs2005/pharmgate/internal/repositories/auditlog"
	"github.com/dmitrijs2005/pharmgate/internal/repositories/employees"
	"github.com/dmitrijs2005/pharmgate/internal/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX (a *sql.DB or a
// transaction) and applies schema migrations.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Employees(db dbx.DBTX) employees.Repository
	AuditLog(db dbx.DBTX) auditlog.Repository
}
