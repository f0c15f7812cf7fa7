// Package users provides a PostgreSQL-backed repository for account rows.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/okovalenko/mediadrop/internal/common"
	"github.com/okovalenko/mediadrop/internal/dbx"
	"github.com/okovalenko/mediadrop/internal/server/models"
)

// uniqueViolation is the SQLSTATE reported by PostgreSQL when an insert
// breaks a unique constraint (here: users_username_key).
const uniqueViolation = "23505"

// PostgresRepository implements Repository over a dbx.DBTX
// (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts a new user row. A duplicate username yields
// common.ErrorAlreadyExists.
func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, password_hash, role)
         VALUES ($1, $2, $3)
		 RETURNING id
		 `

	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.PasswordHash, user.Role).Scan(&user.ID)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// GetByUsername returns the user row for the given username.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query :=
		`SELECT id, username, password_hash, role FROM users
		 WHERE username = $1
		 `

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, username).Scan(&user.ID, &user.Username, &user.PasswordHash, &user.Role)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

// UpdatePasswordHash overwrites the stored hash for the given username.
// If no row matches, it returns common.ErrorNotFound.
func (r *PostgresRepository) UpdatePasswordHash(ctx context.Context, username string, passwordHash string) error {
	query :=
		`UPDATE users SET password_hash = $1
		 WHERE username = $2
		 `

	res, err := r.db.ExecContext(ctx, query, passwordHash, username)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
