package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/backoffice-api/internal/api/middleware"
	"github.com/99minutos/backoffice-api/internal/core/domain"
)

// errorResponse is the canonical error envelope for all API errors. Error is
// only filled for 500s outside production.
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// NewHTTPErrorHandler returns an echo.HTTPErrorHandler that:
//   - Maps known domain errors to their HTTP status codes.
//   - Logs unexpected errors with the request that caused them.
//   - Renders a consistent JSON envelope: {"message": "<message>"}.
func NewHTTPErrorHandler(log zerolog.Logger, production bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := resolveError(err)
		resp := errorResponse{Message: msg}
		if code >= http.StatusInternalServerError {
			logUnhandled(log, err, c)
			if !production {
				resp.Error = err.Error()
			}
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, resp)
	}
}

func resolveError(err error) (int, string) {
	// Echo's own errors (bind failures, body limit, 404 from router, etc.)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if he.Internal != nil && he.Code >= http.StatusInternalServerError {
			return he.Code, http.StatusText(he.Code)
		}
		return he.Code, fmt.Sprintf("%v", he.Message)
	}

	// Known domain errors → deterministic HTTP codes.
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, err.Error()
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized, "invalid credentials"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "access forbidden"
	case errors.Is(err, domain.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUserExists):
		return http.StatusConflict, "a user with this email already exists"
	case errors.Is(err, domain.ErrDownloadUnsupported):
		return http.StatusNotFound, domain.ErrDownloadUnsupported.Error()
	case domain.IsNotFound(err):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrDatabaseUnavailable):
		return http.StatusInternalServerError, "database unavailable"
	case errors.Is(err, domain.ErrStrategyUnavailable):
		return http.StatusInternalServerError, "storage backend for this document is not configured"
	}

	return http.StatusInternalServerError, "internal server error"
}

// logUnhandled records the failing request, including the captured JSON body.
func logUnhandled(log zerolog.Logger, err error, c echo.Context) {
	req := c.Request()
	ev := log.Error().
		Err(err).
		Str("method", req.Method).
		Str("path", req.URL.Path).
		Str("query", req.URL.RawQuery).
		Str("request_id", c.Response().Header().Get(echo.HeaderXRequestID))
	if body := middleware.CapturedBody(c); len(body) > 0 {
		ev = ev.RawJSON("body", body)
	}
	if userID, ok := c.Get(middleware.ContextUserID).(string); ok {
		ev = ev.Str("user_id", userID)
	}
	ev.Msg("unhandled error")
}
