package sessions

import (
	"context"
	"time"

	"github.com/okovalenko/mediadrop/internal/common"
	"github.com/okovalenko/mediadrop/internal/server/models"
	sessionsrepo "github.com/okovalenko/mediadrop/internal/server/repositories/sessions"
)

// DatabaseStore keeps sessions in the sessions table so multiple server
// instances behind a load balancer share login state.
type DatabaseStore struct {
	repo sessionsrepo.Repository
}

// NewDatabaseStore constructs a store over the given sessions repository.
func NewDatabaseStore(repo sessionsrepo.Repository) *DatabaseStore {
	return &DatabaseStore{repo: repo}
}

// Create issues a new session row for the user.
func (s *DatabaseStore) Create(ctx context.Context, user *models.User, ttl time.Duration) (*models.Session, error) {
	session := &models.Session{
		Token:     newToken(),
		UserID:    user.ID,
		Username:  user.Username,
		Role:      user.Role,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := s.repo.Create(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

// Get resolves a token. An expired row is deleted and reported as not found.
func (s *DatabaseStore) Get(ctx context.Context, token string) (*models.Session, error) {
	session, err := s.repo.Find(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.Expired(time.Now()) {
		_ = s.repo.Delete(ctx, token)
		return nil, common.ErrorNotFound
	}
	return session, nil
}

// Delete destroys the session row.
func (s *DatabaseStore) Delete(ctx context.Context, token string) error {
	return s.repo.Delete(ctx, token)
}

// PurgeExpired removes all rows past their expiry; intended to be called
// periodically alongside the reconciliation sweep.
func (s *DatabaseStore) PurgeExpired(ctx context.Context) error {
	return s.repo.DeleteExpired(ctx, time.Now())
}
