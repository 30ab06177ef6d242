package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"

	"github.com/google/uuid"

	"github.com/99minutos/backoffice-api/internal/core/domain"
	"github.com/99minutos/backoffice-api/internal/core/ports"
)

// MemoryStorage accepts uploads without retaining their bytes. It suits
// ephemeral deployments where only document metadata matters.
type MemoryStorage struct{}

func NewMemoryStorage() *MemoryStorage { return &MemoryStorage{} }

func (s *MemoryStorage) Strategy() domain.StorageStrategy { return domain.StorageMemory }

// Store drains the body and returns a synthetic memory:// reference.
func (s *MemoryStorage) Store(_ context.Context, file ports.FileInput) (domain.StorageRef, error) {
	if _, err := io.Copy(io.Discard, file.Body); err != nil {
		return domain.StorageRef{}, fmt.Errorf("read upload: %w", err)
	}
	return domain.StorageRef{
		Strategy: domain.StorageMemory,
		Location: "memory://" + uuid.NewString() + "/" + url.PathEscape(file.Name),
	}, nil
}

func (s *MemoryStorage) Retrieve(context.Context, domain.StorageRef) (*ports.StoredObject, error) {
	return nil, domain.ErrDownloadUnsupported
}

func (s *MemoryStorage) Delete(context.Context, domain.StorageRef) error { return nil }
