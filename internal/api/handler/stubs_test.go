package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/99minutos/backoffice-api/internal/api/middleware"
	"github.com/99minutos/backoffice-api/internal/core/domain"
	"github.com/99minutos/backoffice-api/internal/core/ports"
)

var (
	adminUser  = &domain.User{ID: "admin-1", Name: "Admin", Email: "admin@example.com", Role: domain.RoleAdmin}
	clientUser = &domain.User{ID: "client-1", Name: "Alice", Email: "alice@example.com", Role: domain.RoleClient}
)

// newContext builds a request context with e.Validator set, optionally as an
// authenticated user.
func newContext(method, target string, body io.Reader, contentType string, user *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if user != nil {
		c.Set(middleware.ContextUser, user)
		c.Set(middleware.ContextUserID, user.ID)
		c.Set(middleware.ContextRole, user.Role)
	}
	return c, rec
}

func jsonContext(method, target, body string, user *domain.User) (echo.Context, *httptest.ResponseRecorder) {
	return newContext(method, target, strings.NewReader(body), echo.MIMEApplicationJSON, user)
}

type stubAuthService struct {
	registerFn func(ctx context.Context, input ports.RegisterInput) (*domain.User, error)
	loginFn    func(ctx context.Context, email, password string) (string, *domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, input)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

type stubClientService struct {
	listFn   func(ctx context.Context, actor *domain.User) ([]*domain.User, error)
	getFn    func(ctx context.Context, actor *domain.User, id string) (*domain.User, error)
	createFn func(ctx context.Context, actor *domain.User, input ports.CreateClientInput) (*domain.User, error)
	updateFn func(ctx context.Context, actor *domain.User, id string, input ports.UpdateClientInput) (*domain.User, error)
	deleteFn func(ctx context.Context, actor *domain.User, id string) error
}

func (s *stubClientService) List(ctx context.Context, actor *domain.User) ([]*domain.User, error) {
	return s.listFn(ctx, actor)
}

func (s *stubClientService) Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	return s.getFn(ctx, actor, id)
}

func (s *stubClientService) Create(ctx context.Context, actor *domain.User, input ports.CreateClientInput) (*domain.User, error) {
	return s.createFn(ctx, actor, input)
}

func (s *stubClientService) Update(ctx context.Context, actor *domain.User, id string, input ports.UpdateClientInput) (*domain.User, error) {
	return s.updateFn(ctx, actor, id, input)
}

func (s *stubClientService) Delete(ctx context.Context, actor *domain.User, id string) error {
	return s.deleteFn(ctx, actor, id)
}

type stubTaskService struct {
	listFn   func(ctx context.Context, actor *domain.User, input ports.ListTasksInput) ([]*domain.Task, error)
	getFn    func(ctx context.Context, actor *domain.User, id string) (*domain.Task, error)
	createFn func(ctx context.Context, actor *domain.User, input ports.CreateTaskInput) (*domain.Task, error)
	updateFn func(ctx context.Context, actor *domain.User, id string, patch domain.TaskPatch) (*domain.Task, error)
	deleteFn func(ctx context.Context, actor *domain.User, id string) error
}

func (s *stubTaskService) List(ctx context.Context, actor *domain.User, input ports.ListTasksInput) ([]*domain.Task, error) {
	return s.listFn(ctx, actor, input)
}

func (s *stubTaskService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Task, error) {
	return s.getFn(ctx, actor, id)
}

func (s *stubTaskService) Create(ctx context.Context, actor *domain.User, input ports.CreateTaskInput) (*domain.Task, error) {
	return s.createFn(ctx, actor, input)
}

func (s *stubTaskService) Update(ctx context.Context, actor *domain.User, id string, patch domain.TaskPatch) (*domain.Task, error) {
	return s.updateFn(ctx, actor, id, patch)
}

func (s *stubTaskService) Delete(ctx context.Context, actor *domain.User, id string) error {
	return s.deleteFn(ctx, actor, id)
}

type stubDocumentService struct {
	listFn     func(ctx context.Context, actor *domain.User, filter ports.DocumentFilter) ([]*domain.Document, error)
	getFn      func(ctx context.Context, actor *domain.User, id string) (*domain.Document, error)
	uploadFn   func(ctx context.Context, actor *domain.User, input ports.UploadDocumentInput) (*domain.Document, error)
	downloadFn func(ctx context.Context, actor *domain.User, id string) (*domain.Document, *ports.StoredObject, error)
	deleteFn   func(ctx context.Context, actor *domain.User, id string) error
}

func (s *stubDocumentService) List(ctx context.Context, actor *domain.User, filter ports.DocumentFilter) ([]*domain.Document, error) {
	return s.listFn(ctx, actor, filter)
}

func (s *stubDocumentService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Document, error) {
	return s.getFn(ctx, actor, id)
}

func (s *stubDocumentService) Upload(ctx context.Context, actor *domain.User, input ports.UploadDocumentInput) (*domain.Document, error) {
	return s.uploadFn(ctx, actor, input)
}

func (s *stubDocumentService) Download(ctx context.Context, actor *domain.User, id string) (*domain.Document, *ports.StoredObject, error) {
	return s.downloadFn(ctx, actor, id)
}

func (s *stubDocumentService) Delete(ctx context.Context, actor *domain.User, id string) error {
	return s.deleteFn(ctx, actor, id)
}
