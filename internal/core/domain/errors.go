package domain

import "errors"

var (
	ErrUnauthenticated     = errors.New("authentication required")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrForbidden           = errors.New("access forbidden")
	ErrInvalidInput        = errors.New("invalid input")
	ErrPayloadTooLarge     = errors.New("payload too large")
	ErrUserExists          = errors.New("user already exists")
	ErrUserNotFound        = errors.New("user not found")
	ErrClientNotFound      = errors.New("client not found")
	ErrTaskNotFound        = errors.New("task not found")
	ErrDocumentNotFound    = errors.New("document not found")
	ErrDatabaseUnavailable = errors.New("database unavailable")

	// ErrDownloadUnsupported is returned for references whose bytes were never retained.
	ErrDownloadUnsupported = errors.New("file content is not retained by the in-memory storage strategy")
	ErrStrategyUnavailable = errors.New("storage strategy not configured")
)

// IsNotFound reports whether err is any of the not-found sentinels.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrClientNotFound) ||
		errors.Is(err, ErrTaskNotFound) ||
		errors.Is(err, ErrDocumentNotFound) ||
		errors.Is(err, ErrDownloadUnsupported)
}
