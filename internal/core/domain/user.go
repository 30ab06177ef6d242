package domain

import (
	"strings"
	"time"
)

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)

// User models an authenticated actor in the system. Clients are users with
// the client role.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Phone        string    `json:"phone,omitempty"`
	Company      string    `json:"company,omitempty"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CanAccess reports whether u may act on a resource owned by ownerID.
func (u *User) CanAccess(ownerID string) bool {
	if u == nil {
		return false
	}
	return CanAccess(ownerID, u.ID, u.Role)
}

// CanAccess is the ownership predicate shared by every resource: admins pass
// unconditionally, anyone else only for resources they own.
func CanAccess(ownerID, userID, role string) bool {
	if role == RoleAdmin {
		return true
	}
	return ownerID != "" && ownerID == userID
}

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	return role == RoleAdmin || role == RoleClient
}

// NormalizeEmail lower-cases and trims an email so uniqueness is case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
