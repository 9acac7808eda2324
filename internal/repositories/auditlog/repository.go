package auditlog

import (
	"context"

	"github.com/dmitrijs2005/pharmgate/internal/models"
)

type Repository interface {
	Append(ctx context.Context, entry *models.AuditLogEntry) (*models.AuditLogEntry, error)
	ListByUser(ctx context.Context, userID int64, limit int) ([]models.AuditLogEntry, error)
}
