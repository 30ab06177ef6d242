package ports

import (
	"context"

	"github.com/99minutos/backoffice-api/internal/core/domain"
)

// CreateClientInput carries the fields for a new client. Password is optional.
type CreateClientInput struct {
	Name     string
	Email    string
	Phone    string
	Company  string
	Password string
}

// UpdateClientInput carries optional changes. Nil means unchanged.
type UpdateClientInput struct {
	Name     *string
	Email    *string
	Phone    *string
	Company  *string
	Password *string
}

// ClientService defines use-case operations on client accounts.
type ClientService interface {
	List(ctx context.Context, actor *domain.User) ([]*domain.User, error)
	Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error)
	Create(ctx context.Context, actor *domain.User, input CreateClientInput) (*domain.User, error)
	Update(ctx context.Context, actor *domain.User, id string, input UpdateClientInput) (*domain.User, error)
	Delete(ctx context.Context, actor *domain.User, id string) error
}
