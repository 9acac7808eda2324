// Package identity is the query layer over users, employees and the audit
// log. It obtains a connection from a DBProvider on every call so it follows
// reconnects, and runs each mutation in a single transaction.
package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pharmgate/internal/common"
	"github.com/dmitrijs2005/pharmgate/internal/dbx"
	"github.com/dmitrijs2005/pharmgate/internal/logging"
	"github.com/dmitrijs2005/pharmgate/internal/models"
	"github.com/dmitrijs2005/pharmgate/internal/repositories/repomanager"
)

// DBProvider hands out the live connection, or common.ErrStoreUnavailable.
type DBProvider interface {
	DB() (*sql.DB, error)
}

type Store struct {
	provider DBProvider
	repos    repomanager.RepositoryManager
	log      logging.Logger
}

func NewStore(provider DBProvider, repos repomanager.RepositoryManager, log logging.Logger) *Store {
	if log == nil {
		log = logging.Nop()
	}
	return &Store{provider: provider, repos: repos, log: log.With("component", "identity")}
}

func (s *Store) conn() (*sql.DB, error) {
	db, err := s.provider.DB()
	if err != nil {
		if errors.Is(err, common.ErrStoreUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}
	return db, nil
}

func (s *Store) CountUsers(ctx context.Context) (int64, error) {
	db, err := s.conn()
	if err != nil {
		return 0, err
	}
	return s.repos.Users(db).Count(ctx)
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*models.Account, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return s.repos.Users(db).GetAccountByUsername(ctx, username)
}

func (s *Store) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return s.repos.Users(db).GetAccountByID(ctx, id)
}

func (s *Store) ListUsers(ctx context.Context) ([]models.UserSummary, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return s.repos.Users(db).List(ctx)
}

// CreateAccount inserts the employee, then the user pointing at it, then an
// audit entry, all in one transaction. actorID is the acting user. The
// generated ids are copied into acct only after a successful commit.
func (s *Store) CreateAccount(ctx context.Context, acct *models.Account, actorID *int64) (*models.Account, error) {
	return s.createAccount(ctx, acct, actorID, false)
}

// BootstrapAccount is CreateAccount for the very first account, which is
// recorded as its own creator. The users table is locked for the duration
// of the transaction, so of two concurrent bootstraps only one can see an
// empty table; the other gets common.ErrAlreadyExists.
func (s *Store) BootstrapAccount(ctx context.Context, acct *models.Account) (*models.Account, error) {
	return s.createAccount(ctx, acct, nil, true)
}

func (s *Store) createAccount(ctx context.Context, acct *models.Account, actorID *int64, firstOnly bool) (*models.Account, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	out := *acct
	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if firstOnly {
			users := s.repos.Users(tx)
			if err := users.LockTable(ctx); err != nil {
				return err
			}
			n, err := users.Count(ctx)
			if err != nil {
				return err
			}
			if n > 0 {
				return fmt.Errorf("%w: initial administrator is already set up", common.ErrAlreadyExists)
			}
		}

		if _, err := s.repos.Employees(tx).Create(ctx, &out.Employee); err != nil {
			return fmt.Errorf("create employee: %w", err)
		}

		out.User.EmployeeID = out.Employee.ID
		if _, err := s.repos.Users(tx).Create(ctx, &out.User); err != nil {
			return fmt.Errorf("create user: %w", err)
		}

		actor := actorID
		if actor == nil {
			actor = &out.User.ID
		}
		_, err := s.repos.AuditLog(tx).Append(ctx, &models.AuditLogEntry{
			UserID:     actor,
			ActionType: models.ActionCreate,
			TableName:  "users",
			RecordID:   &out.User.ID,
			Details:    fmt.Sprintf("created %s %q", out.User.Role, out.User.Username),
		})
		return err
	})
	if err != nil {
		if !errors.Is(err, common.ErrAlreadyExists) {
			s.log.Error(ctx, "create account rolled back", "username", acct.User.Username, "error", err)
		}
		return nil, err
	}

	*acct = out
	return acct, nil
}

// DeleteAccount removes the user and its employee and records who did it.
// common.ErrNotFound when id does not exist.
func (s *Store) DeleteAccount(ctx context.Context, id int64, actorID int64) error {
	db, err := s.conn()
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		acct, err := s.repos.Users(tx).GetAccountByID(ctx, id)
		if err != nil {
			return err
		}
		if err := s.repos.Users(tx).Delete(ctx, id); err != nil {
			return fmt.Errorf("delete user: %w", err)
		}
		if err := s.repos.Employees(tx).Delete(ctx, acct.Employee.ID); err != nil {
			return fmt.Errorf("delete employee: %w", err)
		}
		_, err = s.repos.AuditLog(tx).Append(ctx, &models.AuditLogEntry{
			UserID:     &actorID,
			ActionType: models.ActionDelete,
			TableName:  "users",
			RecordID:   &id,
			Details:    fmt.Sprintf("deleted %q", acct.User.Username),
		})
		return err
	})
	if err != nil && !errors.Is(err, common.ErrNotFound) {
		s.log.Error(ctx, "delete account rolled back", "user_id", id, "error", err)
	}
	return err
}

func (s *Store) SetPersistSession(ctx context.Context, id int64, persist bool) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return s.repos.Users(tx).SetPersistSession(ctx, id, persist)
	})
}

// AppendAudit records entry on its own.
func (s *Store) AppendAudit(ctx context.Context, entry *models.AuditLogEntry) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		_, err := s.repos.AuditLog(tx).Append(ctx, entry)
		return err
	})
}

// AuditTrail returns the newest entries attributed to userID.
func (s *Store) AuditTrail(ctx context.Context, userID int64, limit int) ([]models.AuditLogEntry, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}
	return s.repos.AuditLog(db).ListByUser(ctx, userID, limit)
}
