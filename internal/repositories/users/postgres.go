package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/pharmgate/internal/common"
	"github.com/dmitrijs2005/pharmgate/internal/dbx"
	"github.com/dmitrijs2005/pharmgate/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const accountColumns = `u.id, u.employee_id, u.username, u.password_hash, u.role, u.persist_session,
		        e.name, e.position, e.salary`

func (r *PostgresRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

// LockTable blocks concurrent inserts and other LockTable callers until the
// surrounding transaction ends. Outside a transaction it has no effect.
func (r *PostgresRepository) LockTable(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `LOCK TABLE users IN SHARE ROW EXCLUSIVE MODE`); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Create inserts user. A duplicate username yields common.ErrAlreadyExists,
// a missing employee common.ErrNotFound.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (employee_id, username, password_hash, role, persist_session)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.EmployeeID, user.Username, user.PasswordHash, string(user.Role), user.PersistSession).Scan(&user.ID)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrAlreadyExists
		}
		if dbx.IsForeignKeyViolation(err) {
			return nil, fmt.Errorf("employee %d: %w", user.EmployeeID, common.ErrNotFound)
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetAccountByUsername(ctx context.Context, username string) (*models.Account, error) {
	query :=
		`SELECT ` + accountColumns + `
		 FROM users u JOIN employees e ON e.id = u.employee_id
		 WHERE u.username = $1
		 `
	return r.scanAccount(r.db.QueryRowContext(ctx, query, username))
}

func (r *PostgresRepository) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	query :=
		`SELECT ` + accountColumns + `
		 FROM users u JOIN employees e ON e.id = u.employee_id
		 WHERE u.id = $1
		 `
	return r.scanAccount(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) scanAccount(row *sql.Row) (*models.Account, error) {
	var (
		a      models.Account
		role   string
		salary sql.NullFloat64
	)

	err := row.Scan(&a.User.ID, &a.User.EmployeeID, &a.User.Username, &a.User.PasswordHash, &role,
		&a.User.PersistSession, &a.Employee.Name, &a.Employee.Position, &salary)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	a.User.Role, err = models.ParseRole(role)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", a.User.ID, err)
	}
	a.Employee.ID = a.User.EmployeeID
	if salary.Valid {
		a.Employee.Salary = &salary.Float64
	}

	return &a, nil
}

func (r *PostgresRepository) SetPersistSession(ctx context.Context, id int64, persist bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET persist_session = $1 WHERE id = $2`, persist, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

// Delete removes the user row only; the paired employee is removed by the caller
// inside the same transaction.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return requireOneRow(res)
}

func (r *PostgresRepository) List(ctx context.Context) ([]models.UserSummary, error) {
	query :=
		`SELECT u.id, u.username, e.name, e.position, u.role
		 FROM users u JOIN employees e ON e.id = u.employee_id
		 ORDER BY u.username
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	list := make([]models.UserSummary, 0)
	for rows.Next() {
		var (
			s    models.UserSummary
			role string
		)
		if err := rows.Scan(&s.ID, &s.Username, &s.EmployeeName, &s.Position, &role); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if s.Role, err = models.ParseRole(role); err != nil {
			return nil, fmt.Errorf("user %d: %w", s.ID, err)
		}
		list = append(list, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return list, nil
}

func requireOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
