package sessions

import (
	"context"
	"time"

	"github.com/okovalenko/mediadrop/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, session *models.Session) error
	Find(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
	DeleteExpired(ctx context.Context, now time.Time) error
}
