package mediafiles

import (
	"context"

	"github.com/okovalenko/mediadrop/internal/server/models"
)

type Repository interface {
	List(ctx context.Context) ([]*models.MediaFile, error)
	Create(ctx context.Context, storedName, originalName string) (*models.MediaFile, error)
	GetByID(ctx context.Context, id int64) (*models.MediaFile, error)
	Delete(ctx context.Context, id int64) error
	StoredNames(ctx context.Context) (map[string]struct{}, error)
}
