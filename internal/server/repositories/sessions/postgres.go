// Package sessions provides a PostgreSQL-backed repository for login
// sessions, used when the server runs behind a load balancer and sessions
// must outlive a single process.
package sessions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/okovalenko/mediadrop/internal/common"
	"github.com/okovalenko/mediadrop/internal/dbx"
	"github.com/okovalenko/mediadrop/internal/server/models"
)

// PostgresRepository implements Repository over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a session row keyed by its opaque token.
func (r *PostgresRepository) Create(ctx context.Context, session *models.Session) error {
	query := `
		INSERT INTO sessions (token, user_id, username, role, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	if _, err := r.db.ExecContext(ctx, query,
		session.Token, session.UserID, session.Username, session.Role, session.ExpiresAt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// Find returns the session row for the given token.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) Find(ctx context.Context, token string) (*models.Session, error) {
	query := `
		SELECT token, user_id, username, role, expires_at
		FROM sessions
		WHERE token = $1
	`
	session := &models.Session{}
	if err := r.db.QueryRowContext(ctx, query, token).Scan(
		&session.Token, &session.UserID, &session.Username, &session.Role, &session.ExpiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return session, nil
}

// Delete removes a session by its token.
func (r *PostgresRepository) Delete(ctx context.Context, token string) error {
	query := `
		DELETE FROM sessions
		WHERE token = $1
	`
	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// DeleteExpired purges all sessions that expired at or before now.
func (r *PostgresRepository) DeleteExpired(ctx context.Context, now time.Time) error {
	query := `
		DELETE FROM sessions
		WHERE expires_at <= $1
	`
	if _, err := r.db.ExecContext(ctx, query, now); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
