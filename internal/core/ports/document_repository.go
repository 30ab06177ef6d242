package ports

import (
	"context"

	"github.com/99minutos/backoffice-api/internal/core/domain"
)

// DocumentFilter narrows a document listing.
type DocumentFilter struct {
	ClientID string
	TaskID   string
}

// DocumentRepository defines persistence operations for documents.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) (*domain.Document, error)
	FindByID(ctx context.Context, id string) (*domain.Document, error)
	// List returns matching documents, newest first.
	List(ctx context.Context, filter DocumentFilter) ([]*domain.Document, error)
	Delete(ctx context.Context, id string) error
	// UnlinkTask clears the task reference on every document pointing at taskID.
	UnlinkTask(ctx context.Context, taskID string) error
}
