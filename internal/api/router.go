package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/99minutos/backoffice-api/docs"
	"github.com/99minutos/backoffice-api/internal/api/handler"
	"github.com/99minutos/backoffice-api/internal/api/middleware"
	"github.com/99minutos/backoffice-api/internal/core/domain"
	"github.com/99minutos/backoffice-api/internal/core/ports"
	"github.com/99minutos/backoffice-api/internal/infrastructure/http/handlers"
)

// multipartOverhead is the slack allowed on top of the file ceiling for
// multipart framing and the other form fields.
const multipartOverhead = 1 << 20

// Options configures the HTTP layer.
type Options struct {
	JWTSecret      string
	Production     bool
	CORSOrigins    []string
	MaxUploadBytes int64
	Logger         zerolog.Logger
	// Registerer and Gatherer default to the Prometheus default registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// Dependencies are the services the routes are served by.
type Dependencies struct {
	Database  middleware.DatabaseEnsurer
	Users     middleware.UserFinder
	Auth      ports.AuthService
	Clients   ports.ClientService
	Tasks     ports.TaskService
	Documents ports.DocumentService
	Health    *handlers.HealthHandler
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(opts Options, deps Dependencies) *echo.Echo {
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(opts.Logger, opts.Production)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     opts.CORSOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(requestLogger(opts.Logger))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "backoffice",
		Registerer: opts.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))
	e.Use(middleware.CaptureBody())

	// --- Operational routes (no database, no auth) ---
	e.GET("/", deps.Health.Root)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: opts.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")
	api.GET("/health", deps.Health.Health)

	requireDB := middleware.RequireDatabase(deps.Database)
	auth := middleware.Auth(opts.JWTSecret, deps.Users)
	adminOnly := middleware.RBAC(domain.RoleAdmin)

	// --- Auth routes ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	authGroup := api.Group("/auth", requireDB)
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authHandler.Me, auth)

	// --- Clients ---
	clientHandler := handler.NewClientHandler(deps.Clients)
	clients := api.Group("/clients", requireDB, auth)
	clients.GET("", clientHandler.List)
	clients.GET("/:id", clientHandler.Get)
	clients.POST("", clientHandler.Create, adminOnly)
	clients.PUT("/:id", clientHandler.Update)
	clients.DELETE("/:id", clientHandler.Delete, adminOnly)

	// --- Tasks ---
	taskHandler := handler.NewTaskHandler(deps.Tasks)
	tasks := api.Group("/tasks", requireDB, auth)
	tasks.GET("", taskHandler.List)
	tasks.GET("/:id", taskHandler.Get)
	tasks.POST("", taskHandler.Create, adminOnly)
	tasks.PUT("/:id", taskHandler.Update)
	tasks.DELETE("/:id", taskHandler.Delete, adminOnly)

	// --- Documents ---
	docHandler := handler.NewDocumentHandler(deps.Documents, opts.MaxUploadBytes)
	docs := api.Group("/documents", requireDB, auth)
	docs.GET("", docHandler.List)
	docs.GET("/download/:id", docHandler.Download)
	docs.GET("/:id", docHandler.Get)
	docs.POST("", docHandler.Upload, echomiddleware.BodyLimit(bodyLimit(opts.MaxUploadBytes)))
	docs.DELETE("/:id", docHandler.Delete)

	return e
}

// bodyLimit renders the upload ceiling plus framing slack in echo's size syntax.
func bodyLimit(maxUpload int64) string {
	return fmt.Sprintf("%dK", (maxUpload+multipartOverhead+1023)>>10)
}

// requestLogger emits one structured line per request.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Status >= http.StatusInternalServerError {
				ev = log.Error()
			} else if v.Status >= http.StatusBadRequest {
				ev = log.Warn()
			}
			if userID, ok := c.Get(middleware.ContextUserID).(string); ok {
				ev = ev.Str("user_id", userID)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
