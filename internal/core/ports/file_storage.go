package ports

import (
	"context"
	"io"

	"github.com/99minutos/backoffice-api/internal/core/domain"
)

// FileInput is an uploaded file as handed to a storage backend.
type FileInput struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// StoredObject is the result of a retrieval: either a readable body or a
// URL the caller should be redirected to.
type StoredObject struct {
	Body        io.ReadCloser
	RedirectURL string
	ContentType string
	Size        int64
}

// FileStorage is a single storage backend.
type FileStorage interface {
	Strategy() domain.StorageStrategy
	Store(ctx context.Context, file FileInput) (domain.StorageRef, error)
	Retrieve(ctx context.Context, ref domain.StorageRef) (*StoredObject, error)
	Delete(ctx context.Context, ref domain.StorageRef) error
}

// StorageResolver picks backends: Active for new uploads, For to interpret
// an existing reference by its strategy tag.
type StorageResolver interface {
	Active() FileStorage
	For(strategy domain.StorageStrategy) (FileStorage, error)
}
