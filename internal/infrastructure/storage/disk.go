// Package storage holds the file storage backends for uploaded documents.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/99minutos/backoffice-api/internal/core/domain"
	"github.com/99minutos/backoffice-api/internal/core/ports"
)

// DiskStorage writes files under a single upload directory.
type DiskStorage struct {
	dir string
}

// NewDiskStorage creates dir if needed.
func NewDiskStorage(dir string) (*DiskStorage, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve upload dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStorage{dir: abs}, nil
}

func (s *DiskStorage) Strategy() domain.StorageStrategy { return domain.StorageDisk }

// Store writes the file as <uuid><ext>. The location is relative to the
// upload directory.
func (s *DiskStorage) Store(_ context.Context, file ports.FileInput) (domain.StorageRef, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Name))

	f, err := os.OpenFile(filepath.Join(s.dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return domain.StorageRef{}, fmt.Errorf("create file: %w", err)
	}
	if _, err := io.Copy(f, file.Body); err != nil {
		f.Close()
		_ = os.Remove(f.Name())
		return domain.StorageRef{}, fmt.Errorf("write file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return domain.StorageRef{}, fmt.Errorf("close file: %w", err)
	}

	return domain.StorageRef{Strategy: domain.StorageDisk, Location: name}, nil
}

func (s *DiskStorage) Retrieve(_ context.Context, ref domain.StorageRef) (*ports.StoredObject, error) {
	path, err := s.resolve(ref.Location)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: file missing from storage", domain.ErrDocumentNotFound)
		}
		return nil, fmt.Errorf("open file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat file: %w", err)
	}
	return &ports.StoredObject{Body: f, Size: info.Size()}, nil
}

// Delete removes the file; a file that is already gone is not an error.
func (s *DiskStorage) Delete(_ context.Context, ref domain.StorageRef) error {
	path, err := s.resolve(ref.Location)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}
	return nil
}

// resolve maps a stored location to a path, refusing anything that would
// leave the upload directory.
func (s *DiskStorage) resolve(location string) (string, error) {
	if location == "" || filepath.IsAbs(location) {
		return "", fmt.Errorf("%w: invalid storage location", domain.ErrDocumentNotFound)
	}
	path := filepath.Join(s.dir, filepath.Clean(location))
	rel, err := filepath.Rel(s.dir, path)
	if err != nil || rel == "." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || rel == ".." {
		return "", fmt.Errorf("%w: invalid storage location", domain.ErrDocumentNotFound)
	}
	return path, nil
}
