package ports

import (
	"context"

	"github.com/99minutos/backoffice-api/internal/core/domain"
)

// UserFilter narrows a user listing. Empty fields are not applied.
type UserFilter struct {
	Role string
}

// UserRepository defines persistence operations for users (admins and clients).
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context, filter UserFilter) ([]*domain.User, error)
	// Update replaces the mutable fields of the stored user.
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}
