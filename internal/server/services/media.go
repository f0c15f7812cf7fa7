package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/okovalenko/mediadrop/internal/common"
	"github.com/okovalenko/mediadrop/internal/dbx"
	"github.com/okovalenko/mediadrop/internal/logging"
	"github.com/okovalenko/mediadrop/internal/server/blob"
	"github.com/okovalenko/mediadrop/internal/server/models"
	"github.com/okovalenko/mediadrop/internal/server/repositories/repomanager"
)

// MediaService coordinates the blob store and the media catalog so an
// upload or delete affects both, in the order that keeps failures
// detectable: bytes first on upload, bytes first on delete.
type MediaService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blob.Store
	logger      logging.Logger
}

// NewMediaService constructs a MediaService.
func NewMediaService(db *sql.DB, m repomanager.RepositoryManager, blobs blob.Store, l logging.Logger) *MediaService {
	return &MediaService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		logger:      l.With("module", "media_service"),
	}
}

// List returns the catalog, most recently uploaded first.
func (s *MediaService) List(ctx context.Context) ([]*models.MediaFile, error) {
	repo := s.repomanager.MediaFiles(s.db)
	files, err := repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("error listing media: %w", err)
	}
	return files, nil
}

// Upload stores the content in the blob store under a generated name and
// inserts the catalog row. When the insert fails, the already-written blob
// is removed best-effort so the failure leaves no orphan behind.
func (s *MediaService) Upload(ctx context.Context, content io.Reader, originalName string) (*models.MediaFile, error) {
	if content == nil || originalName == "" {
		return nil, fmt.Errorf("%w: missing file", common.ErrorValidation)
	}

	storedName, err := s.blobs.Save(ctx, content, filepath.Ext(originalName))
	if err != nil {
		return nil, fmt.Errorf("error saving blob: %w", err)
	}

	repo := s.repomanager.MediaFiles(s.db)
	file, err := repo.Create(ctx, storedName, originalName)
	if err != nil {
		if delErr := s.blobs.Delete(ctx, storedName); delErr != nil {
			s.logger.Error(ctx, "orphaned blob after failed catalog insert", "stored_name", storedName, "error", delErr)
		}
		return nil, fmt.Errorf("error cataloging upload: %w", err)
	}

	s.logger.Info(ctx, "upload stored", "stored_name", storedName, "original_name", originalName)
	return file, nil
}

// Delete removes a media file by catalog id. Deleting an unknown id is a
// no-op. The blob goes first, and a blob that is already gone counts as
// deleted, so a crash mid-way leaves at worst a catalog row pointing at a
// missing blob, which playback reports as not found.
func (s *MediaService) Delete(ctx context.Context, id int64) error {
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.MediaFiles(tx)

		file, err := repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return nil
			}
			return fmt.Errorf("error looking up media: %w", err)
		}

		if err := s.blobs.Delete(ctx, file.StoredName); err != nil && !errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("error deleting blob: %w", err)
		}

		if err := repo.Delete(ctx, id); err != nil {
			return fmt.Errorf("error deleting catalog row: %w", err)
		}

		s.logger.Info(ctx, "media deleted", "id", id, "stored_name", file.StoredName)
		return nil
	})
	return err
}

// Reconcile sweeps the blob store for blobs no catalog row references and
// deletes them. It returns the number of blobs removed. Orphans appear when
// the process dies between the blob write and the catalog insert.
func (s *MediaService) Reconcile(ctx context.Context) (int, error) {
	repo := s.repomanager.MediaFiles(s.db)
	referenced, err := repo.StoredNames(ctx)
	if err != nil {
		return 0, fmt.Errorf("error listing catalog names: %w", err)
	}

	stored, err := s.blobs.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("error listing blobs: %w", err)
	}

	removed := 0
	for _, name := range stored {
		if _, ok := referenced[name]; ok {
			continue
		}
		if err := s.blobs.Delete(ctx, name); err != nil && !errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "failed to remove orphaned blob", "stored_name", name, "error", err)
			continue
		}
		s.logger.Info(ctx, "removed orphaned blob", "stored_name", name)
		removed++
	}
	return removed, nil
}
