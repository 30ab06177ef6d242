package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/backoffice-api/internal/core/domain"
)

// RBAC enforces role-based access control. It runs after Auth.
func RBAC(allowedRoles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, _ := c.Get(ContextRole).(string)
			if role == "" {
				return domain.ErrUnauthenticated
			}
			if _, ok := allowed[role]; !ok {
				return domain.ErrForbidden
			}
			return next(c)
		}
	}
}
