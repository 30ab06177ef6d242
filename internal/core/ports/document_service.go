package ports

import (
	"context"

	"github.com/99minutos/backoffice-api/internal/core/domain"
)

// UploadDocumentInput carries an uploaded file and its metadata.
// ClientID is only honoured for admins; clients always upload for themselves.
type UploadDocumentInput struct {
	Name        string
	Description string
	ClientID    string
	TaskID      string
	File        FileInput
}

// DocumentService defines use-case operations for documents.
type DocumentService interface {
	List(ctx context.Context, actor *domain.User, filter DocumentFilter) ([]*domain.Document, error)
	Get(ctx context.Context, actor *domain.User, id string) (*domain.Document, error)
	Upload(ctx context.Context, actor *domain.User, input UploadDocumentInput) (*domain.Document, error)
	Download(ctx context.Context, actor *domain.User, id string) (*domain.Document, *StoredObject, error)
	Delete(ctx context.Context, actor *domain.User, id string) error
}
