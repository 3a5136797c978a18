package repository

import (
	"context"

	"github.com/shipfire/payflow/internal/domain/model"
)

// UserRepository describes persistence operations for user accounts.
type UserRepository interface {
	Create(ctx context.Context, uuid, email, passwordHash string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
}
