// Package mediafiles provides a PostgreSQL-backed repository for the media
// catalog: rows mapping a generated stored name to the user-supplied
// original name and the upload timestamp.
package mediafiles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

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

// List returns all catalog rows, most recently inserted first.
func (r *PostgresRepository) List(ctx context.Context) ([]*models.MediaFile, error) {
	query :=
		`SELECT id, stored_name, original_name, uploaded_at FROM media_files
		 ORDER BY id DESC
		 `

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.MediaFile
	for rows.Next() {
		var item models.MediaFile
		if err := rows.Scan(&item.ID, &item.StoredName, &item.OriginalName, &item.UploadedAt); err != nil {
			return nil, err
		}
		result = append(result, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Create inserts a catalog row; uploaded_at is assigned server-side at
// insert time.
func (r *PostgresRepository) Create(ctx context.Context, storedName, originalName string) (*models.MediaFile, error) {
	query :=
		`INSERT INTO media_files (stored_name, original_name)
		 VALUES ($1, $2)
		 RETURNING id, uploaded_at
		 `

	file := &models.MediaFile{StoredName: storedName, OriginalName: originalName}
	if err := r.db.QueryRowContext(ctx, query, storedName, originalName).Scan(&file.ID, &file.UploadedAt); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

// GetByID returns the catalog row with the given id.
// If not found, it returns common.ErrorNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.MediaFile, error) {
	query :=
		`SELECT id, stored_name, original_name, uploaded_at FROM media_files
		 WHERE id = $1
		 `

	file := &models.MediaFile{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&file.ID, &file.StoredName, &file.OriginalName, &file.UploadedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return file, nil
}

// Delete removes the catalog row with the given id. Deleting an absent row
// is not an error.
func (r *PostgresRepository) Delete(ctx context.Context, id int64) error {
	query :=
		`DELETE FROM media_files
		 WHERE id = $1
		 `

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

// StoredNames returns the set of stored names currently referenced by the
// catalog, used by the reconciliation sweep.
func (r *PostgresRepository) StoredNames(ctx context.Context) (map[string]struct{}, error) {
	query := `SELECT stored_name FROM media_files`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	names := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return names, nil
}
