package auditlog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/pharmgate/internal/dbx"
	"github.com/dmitrijs2005/pharmgate/internal/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Append writes entry and fills in its ID and server-side timestamp.
func (r *PostgresRepository) Append(ctx context.Context, entry *models.AuditLogEntry) (*models.AuditLogEntry, error) {
	query :=
		`INSERT INTO action_logs (user_id, action_type, table_name, record_id, details)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		nullable(entry.UserID), entry.ActionType, entry.TableName, nullable(entry.RecordID), entry.Details).
		Scan(&entry.ID, &entry.Timestamp)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	entry.Timestamp = entry.Timestamp.UTC()
	return entry, nil
}

// ListByUser returns the newest entries attributed to userID.
func (r *PostgresRepository) ListByUser(ctx context.Context, userID int64, limit int) ([]models.AuditLogEntry, error) {
	query :=
		`SELECT id, user_id, action_type, table_name, record_id, created_at, details
		 FROM action_logs
		 WHERE user_id = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2
		 `

	rows, err := r.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var list []models.AuditLogEntry
	for rows.Next() {
		var (
			e        models.AuditLogEntry
			uid, rid sql.NullInt64
		)
		if err := rows.Scan(&e.ID, &uid, &e.ActionType, &e.TableName, &rid, &e.Timestamp, &e.Details); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		if uid.Valid {
			e.UserID = &uid.Int64
		}
		if rid.Valid {
			e.RecordID = &rid.Int64
		}
		e.Timestamp = e.Timestamp.UTC()
		list = append(list, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return list, nil
}

func nullable(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
