package ports

import (
	"context"

	"github.com/99minutos/backoffice-api/internal/core/domain"
)

// RegisterInput carries self-registration details. Self-registered users are always clients.
type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
}
