package employees

import (
	"context"
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

func (r *PostgresRepository) Create(ctx context.Context, e *models.Employee) (*models.Employee, error) {
	query :=
		`INSERT INTO employees (name, position, salary)
		 VALUES ($1, $2, $3)
		 RETURNING id
		 `

	var salary any
	if e.Salary != nil {
		salary = *e.Salary
	}

	if err := r.db.QueryRowContext(ctx, query, e.Name, e.Position, salary).Scan(&e.ID); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return e, nil
}

// Delete removes the employee row; common.ErrNotFound if it did not exist.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM employees WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}
