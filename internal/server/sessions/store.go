// Package sessions implements the server-side session store: opaque tokens
// mapped to identity snapshots of the logged-in user. The token is the only
// thing a browser ever holds.
package sessions

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/okovalenko/mediadrop/internal/server/models"
)

// Store is the capability surface of a session backend: create on login,
// resolve per request, destroy on logout. A Get on an expired or unknown
// token reports common.ErrorNotFound so callers treat both identically.
type Store interface {
	Create(ctx context.Context, user *models.User, ttl time.Duration) (*models.Session, error)
	Get(ctx context.Context, token string) (*models.Session, error)
	Delete(ctx context.Context, token string) error
}

// newToken returns an opaque, collision-resistant session token.
func newToken() string {
	return uuid.NewString()
}
