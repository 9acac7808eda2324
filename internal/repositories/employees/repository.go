package employees

import (
	"context"

	"github.com/dmitrijs2005/pharmgate/internal/models"
)

type Repository interface {
	Create(ctx context.Context, e *models.Employee) (*models.Employee, error)
	Delete(ctx context.Context, id int64) error
}
