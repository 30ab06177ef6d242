package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
)

// DatabaseEnsurer verifies (and if needed establishes) database connectivity.
type DatabaseEnsurer interface {
	Ensure(ctx context.Context) error
}

// RequireDatabase rejects the request when the database cannot be reached.
func RequireDatabase(db DatabaseEnsurer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if err := db.Ensure(c.Request().Context()); err != nil {
				return err
			}
			return next(c)
		}
	}
}
