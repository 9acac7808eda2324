package users

import (
	"context"

	"github.com/dmitrijs2005/pharmgate/internal/models"
)

type Repository interface {
	Count(ctx context.Context) (int64, error)
	LockTable(ctx context.Context) error
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetAccountByUsername(ctx context.Context, username string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id int64) (*models.Account, error)
	SetPersistSession(ctx context.Context, id int64, persist bool) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]models.UserSummary, error)
}
