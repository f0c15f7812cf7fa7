package users

import (
	"context"

	"github.com/okovalenko/mediadrop/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdatePasswordHash(ctx context.Context, username string, passwordHash string) error
}
