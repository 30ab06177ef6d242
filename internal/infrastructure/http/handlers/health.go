package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	dbmongo "github.com/99minutos/backoffice-api/internal/infrastructure/db/mongo"
)

// DatabaseProbe reports and re-establishes database connectivity.
type DatabaseProbe interface {
	Ensure(ctx context.Context) error
	State() dbmongo.State
}

// CacheProbe reports on the optional cache. Enabled false means it is not configured.
type CacheProbe interface {
	Enabled() bool
	Ping(ctx context.Context) error
}

// HealthHandler serves the service banner and the health probe.
type HealthHandler struct {
	name  string
	db    DatabaseProbe
	cache CacheProbe
}

// NewHealthHandler builds the handler. cache may be nil.
func NewHealthHandler(name string, db DatabaseProbe, cache CacheProbe) *HealthHandler {
	return &HealthHandler{name: name, db: db, cache: cache}
}

// Root handles GET / and confirms the process is alive.
func (h *HealthHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"name":   h.name,
		"status": "running",
	})
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Redis    string `json:"redis"`
	Error    string `json:"error,omitempty"`
}

// Health handles GET /api/health. The database decides the outcome; Redis is
// optional and only reported.
func (h *HealthHandler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Redis: "disabled"}
	code := http.StatusOK

	if err := h.db.Ensure(ctx); err != nil {
		resp.Status = "degraded"
		resp.Error = err.Error()
		code = http.StatusServiceUnavailable
	}
	resp.Database = h.db.State().String()

	if h.cache != nil && h.cache.Enabled() {
		if err := h.cache.Ping(ctx); err != nil {
			resp.Redis = "unhealthy"
		} else {
			resp.Redis = "ok"
		}
	}

	return c.JSON(code, resp)
}
