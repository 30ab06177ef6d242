package service

import (
	"crypto/rand"
	"encoding/hex"

	"golang.org/x/crypto/bcrypt"

	"github.com/99minutos/backoffice-api/internal/core/domain"
)

func requireAdmin(actor *domain.User) error {
	if actor == nil {
		return domain.ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return domain.ErrForbidden
	}
	return nil
}

// authorize applies the shared ownership predicate to a loaded resource.
func authorize(actor *domain.User, ownerID string) error {
	if actor == nil {
		return domain.ErrUnauthenticated
	}
	if !actor.CanAccess(ownerID) {
		return domain.ErrForbidden
	}
	return nil
}

// scopeClient returns the client filter a listing must use: admins may pick
// any (or none), everyone else is pinned to themselves.
func scopeClient(actor *domain.User, requested string) string {
	if actor.IsAdmin() {
		return requested
	}
	return actor.ID
}

func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// randomPassword is used when an admin creates a client without a password.
func randomPassword() (string, error) {
	b := make([]byte, 18)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
