package blob

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/okovalenko/mediadrop/internal/common"
)

// LocalStore keeps blobs as plain files under a fixed base directory.
type LocalStore struct {
	baseDir string
}

// NewLocalStore ensures the base directory exists and returns a store
// rooted at it.
func NewLocalStore(baseDir string) (*LocalStore, error) {
	dir := baseDir
	if !filepath.IsAbs(dir) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getwd: %w", err)
		}
		dir = filepath.Join(cwd, dir)
	}
	if err := os.MkdirAll(dir, 0o770); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &LocalStore{baseDir: dir}, nil
}

// path joins a validated stored name against the base directory.
func (s *LocalStore) path(storedName string) (string, error) {
	if err := checkStoredName(storedName); err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, storedName), nil
}

// Save streams the content to disk under a new stored name. The write is
// synchronous; the file is fully on disk when Save returns.
func (s *LocalStore) Save(ctx context.Context, content io.Reader, originalExtension string) (string, error) {
	storedName := NewStoredName(originalExtension)
	path, err := s.path(storedName)
	if err != nil {
		return "", err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o660)
	if err != nil {
		return "", fmt.Errorf("create blob: %w", err)
	}

	if _, err := io.Copy(f, content); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write blob: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close blob: %w", err)
	}

	return storedName, nil
}

// Delete removes the blob file; an absent file yields common.ErrorNotFound.
func (s *LocalStore) Delete(ctx context.Context, storedName string) error {
	path, err := s.path(storedName)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return common.ErrorNotFound
		}
		return fmt.Errorf("remove blob: %w", err)
	}
	return nil
}

// Exists reports whether the blob file is present and is a regular file.
func (s *LocalStore) Exists(ctx context.Context, storedName string) (bool, error) {
	path, err := s.path(storedName)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat blob: %w", err)
	}
	return info.Mode().IsRegular(), nil
}

// Open returns the blob file for streaming.
func (s *LocalStore) Open(ctx context.Context, storedName string) (io.ReadCloser, error) {
	path, err := s.path(storedName)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("open blob: %w", err)
	}
	return f, nil
}

// List returns the stored names of all regular files in the base directory.
func (s *LocalStore) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}
