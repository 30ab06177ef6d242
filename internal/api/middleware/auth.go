package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/99minutos/backoffice-api/internal/core/domain"
)

// Context keys set by Auth.
const (
	ContextUser   = "user"
	ContextUserID = "user_id"
	ContextRole   = "role"
)

// UserFinder loads the account behind a token subject.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
}

// Auth validates the bearer JWT, loads its user and injects it into the
// context. The stored role is authoritative over the token claim.
func Auth(jwtSecret string, users UserFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			if authHeader == "" {
				return fmt.Errorf("%w: missing authorization header", domain.ErrUnauthenticated)
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
				return fmt.Errorf("%w: invalid authorization header", domain.ErrUnauthenticated)
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(strings.TrimSpace(parts[1]), claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
			if err != nil || !tkn.Valid {
				return fmt.Errorf("%w: invalid or expired token", domain.ErrUnauthenticated)
			}

			sub, err := claims.GetSubject()
			if err != nil || sub == "" {
				return fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
			}

			user, err := users.FindByID(c.Request().Context(), sub)
			if err != nil {
				if errors.Is(err, domain.ErrUserNotFound) {
					return fmt.Errorf("%w: account no longer exists", domain.ErrUnauthenticated)
				}
				return err
			}

			c.Set(ContextUser, user)
			c.Set(ContextUserID, user.ID)
			c.Set(ContextRole, user.Role)

			return next(c)
		}
	}
}
