package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/99minutos/backoffice-api/internal/core/domain"
	"github.com/99minutos/backoffice-api/internal/core/ports"
	dbmongo "github.com/99minutos/backoffice-api/internal/infrastructure/db/mongo"
	"github.com/99minutos/backoffice-api/internal/infrastructure/http/handlers"
)

const testSecret = "router-secret"

var (
	admin  = &domain.User{ID: "a1", Email: "admin@example.com", Role: domain.RoleAdmin}
	client = &domain.User{ID: "c1", Email: "client@example.com", Role: domain.RoleClient}
)

type stubDB struct{ err error }

func (s *stubDB) Ensure(context.Context) error { return s.err }
func (s *stubDB) State() dbmongo.State {
	if s.err != nil {
		return dbmongo.StateDegraded
	}
	return dbmongo.StateReady
}

type stubUsers map[string]*domain.User

func (s stubUsers) FindByID(_ context.Context, id string) (*domain.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

type stubAuth struct{}

func (stubAuth) Register(context.Context, ports.RegisterInput) (*domain.User, error) {
	return nil, errors.New("not implemented")
}

func (stubAuth) Login(context.Context, string, string) (string, *domain.User, error) {
	return "", nil, domain.ErrInvalidCredentials
}

type stubClients struct{}

func (stubClients) List(context.Context, *domain.User) ([]*domain.User, error) {
	return []*domain.User{client}, nil
}

func (stubClients) Get(context.Context, *domain.User, string) (*domain.User, error) {
	return nil, domain.ErrClientNotFound
}

func (stubClients) Create(_ context.Context, _ *domain.User, in ports.CreateClientInput) (*domain.User, error) {
	return &domain.User{ID: "c2", Name: in.Name, Email: in.Email, Role: domain.RoleClient, PasswordHash: "$2a$10$hash"}, nil
}

func (stubClients) Update(context.Context, *domain.User, string, ports.UpdateClientInput) (*domain.User, error) {
	return nil, domain.ErrClientNotFound
}

func (stubClients) Delete(context.Context, *domain.User, string) error { return nil }

type stubTasks struct{}

func (stubTasks) List(context.Context, *domain.User, ports.ListTasksInput) ([]*domain.Task, error) {
	return nil, errors.New("boom")
}

func (stubTasks) Get(context.Context, *domain.User, string) (*domain.Task, error) {
	return nil, domain.ErrTaskNotFound
}

func (stubTasks) Create(context.Context, *domain.User, ports.CreateTaskInput) (*domain.Task, error) {
	return nil, domain.ErrForbidden
}

func (stubTasks) Update(context.Context, *domain.User, string, domain.TaskPatch) (*domain.Task, error) {
	return nil, domain.ErrTaskNotFound
}

func (stubTasks) Delete(context.Context, *domain.User, string) error { return nil }

type stubDocuments struct{ uploads int }

func (s *stubDocuments) List(context.Context, *domain.User, ports.DocumentFilter) ([]*domain.Document, error) {
	return nil, nil
}

func (s *stubDocuments) Get(context.Context, *domain.User, string) (*domain.Document, error) {
	return nil, domain.ErrDocumentNotFound
}

func (s *stubDocuments) Upload(_ context.Context, _ *domain.User, in ports.UploadDocumentInput) (*domain.Document, error) {
	s.uploads++
	return &domain.Document{ID: "d1", FileName: in.File.Name, Size: in.File.Size}, nil
}

func (s *stubDocuments) Download(context.Context, *domain.User, string) (*domain.Document, *ports.StoredObject, error) {
	return nil, nil, domain.ErrDownloadUnsupported
}

func (s *stubDocuments) Delete(context.Context, *domain.User, string) error { return nil }

type testServer struct {
	e    *echo.Echo
	db   *stubDB
	docs *stubDocuments
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db := &stubDB{}
	docs := &stubDocuments{}
	reg := prometheus.NewRegistry()
	e := NewRouter(Options{
		JWTSecret:      testSecret,
		CORSOrigins:    []string{"http://localhost:3000"},
		MaxUploadBytes: 16,
		Logger:         zerolog.Nop(),
		Registerer:     reg,
		Gatherer:       reg,
	}, Dependencies{
		Database:  db,
		Users:     stubUsers{admin.ID: admin, client.ID: client},
		Auth:      stubAuth{},
		Clients:   stubClients{},
		Tasks:     stubTasks{},
		Documents: docs,
		Health:    handlers.NewHealthHandler("backoffice-api", db, nil),
	})
	return &testServer{e: e, db: db, docs: docs}
}

func bearer(t *testing.T, u *domain.User) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  u.ID,
		"role": u.Role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + token
}

func (s *testServer) do(req *http.Request) (*httptest.ResponseRecorder, map[string]any) {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	var body map[string]any
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestRouter_RequiresToken(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(httptest.NewRequest(http.MethodGet, "/api/clients", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if msg, _ := body["message"].(string); !strings.Contains(msg, "authentication required") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestRouter_AdminOnlyRoutes(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/clients", strings.NewReader(`{"name":"N","email":"n@example.com"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, client))
	rec, body := s.do(req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if body["message"] != "access forbidden" {
		t.Fatalf("unexpected body %v", body)
	}

	req = httptest.NewRequest(http.MethodDelete, "/api/tasks/t1", nil)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, client))
	if rec, _ := s.do(req); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 on task delete, got %d", rec.Code)
	}
}

func TestRouter_CreateClientHidesPassword(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/clients", strings.NewReader(`{"name":"N","email":"n@example.com","password":"secret1"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, admin))
	rec, body := s.do(req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	if strings.Contains(rec.Body.String(), "hash") || body["password"] != nil {
		t.Fatalf("password material leaked: %s", rec.Body.String())
	}
}

func TestRouter_DatabaseUnavailable(t *testing.T) {
	s := newTestServer(t)
	s.db.err = domain.ErrDatabaseUnavailable

	req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, admin))
	rec, body := s.do(req)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if body["message"] != "database unavailable" {
		t.Fatalf("unexpected body %v", body)
	}

	// The health probe answers for itself instead of going through the gate.
	rec, body = s.do(httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if body["database"] != "degraded" {
		t.Fatalf("unexpected health body %v", body)
	}

	rec, _ = s.do(httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("root must not need the database, got %d", rec.Code)
	}
}

func TestRouter_ErrorMapping(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		method, path string
		want         int
		message      string
	}{
		{http.MethodGet, "/api/tasks/missing", http.StatusNotFound, "task not found"},
		{http.MethodGet, "/api/tasks", http.StatusInternalServerError, "internal server error"},
		{http.MethodGet, "/api/documents/download/d1", http.StatusNotFound, domain.ErrDownloadUnsupported.Error()},
		{http.MethodGet, "/api/nowhere", http.StatusNotFound, "Not Found"},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		req.Header.Set(echo.HeaderAuthorization, bearer(t, admin))
		rec, body := s.do(req)
		if rec.Code != tc.want {
			t.Fatalf("%s %s: expected %d, got %d", tc.method, tc.path, tc.want, rec.Code)
		}
		if body["message"] != tc.message {
			t.Fatalf("%s %s: unexpected message %v", tc.method, tc.path, body["message"])
		}
	}
}

func TestRouter_InternalErrorDetailOutsideProduction(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
	req.Header.Set(echo.HeaderAuthorization, bearer(t, admin))
	_, body := s.do(req)
	if body["error"] != "boom" {
		t.Fatalf("expected error detail, got %v", body)
	}
}

func TestRouter_UploadLimits(t *testing.T) {
	s := newTestServer(t)

	upload := func(content []byte) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, _ := w.CreateFormFile("file", "notes.txt")
		_, _ = part.Write(content)
		_ = w.Close()
		req := httptest.NewRequest(http.MethodPost, "/api/documents", &buf)
		req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
		req.Header.Set(echo.HeaderAuthorization, bearer(t, client))
		rec, _ := s.do(req)
		return rec
	}

	if rec := upload([]byte("small")); rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	// Over the file ceiling but under the request limit.
	if rec := upload(bytes.Repeat([]byte("x"), 64)); rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from the file check, got %d", rec.Code)
	}
	// Over the request limit altogether.
	if rec := upload(bytes.Repeat([]byte("x"), 2<<20)); rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 from the body limit, got %d", rec.Code)
	}
	if s.docs.uploads != 1 {
		t.Fatalf("expected one stored upload, got %d", s.docs.uploads)
	}
}

func TestRouter_Metrics(t *testing.T) {
	s := newTestServer(t)
	s.do(httptest.NewRequest(http.MethodGet, "/", nil))

	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	data, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(data), "backoffice_requests_total") {
		t.Fatalf("request metrics missing")
	}
}

func TestBodyLimit(t *testing.T) {
	if got := bodyLimit(10 << 20); got != "11264K" {
		t.Fatalf("unexpected limit %q", got)
	}
}
