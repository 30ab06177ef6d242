package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/99minutos/backoffice-api/internal/api/middleware"
	"github.com/99minutos/backoffice-api/internal/core/domain"
)

// ctxUser returns the session user injected by the Auth middleware. A missing
// user means the route was mounted without Auth; fail closed with 401.
func ctxUser(c echo.Context) (*domain.User, error) {
	user, ok := c.Get(middleware.ContextUser).(*domain.User)
	if !ok || user == nil {
		return nil, domain.ErrUnauthenticated
	}
	return user, nil
}

// messageResponse is the body of successful deletions.
type messageResponse struct {
	Message string `json:"message"`
}

// bindAndValidate decodes the request body and runs struct validation.
func bindAndValidate(c echo.Context, req any) error {
	return bindMaskValidate(c, req, nil)
}

// bindMaskValidate is bindAndValidate with a mask applied between decoding
// and validation, so fields the caller may not set are dropped rather than
// rejected.
func bindMaskValidate(c echo.Context, req any, mask func()) error {
	if err := c.Bind(req); err != nil {
		return invalidInput("invalid payload")
	}
	if mask != nil {
		mask()
	}
	if err := c.Validate(req); err != nil {
		return invalidInput(err.Error())
	}
	return nil
}
