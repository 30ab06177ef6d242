package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/99minutos/backoffice-api/internal/core/domain"
	"github.com/99minutos/backoffice-api/internal/core/ports"
)

func TestClientHandler_List(t *testing.T) {
	stub := &stubClientService{
		listFn: func(ctx context.Context, actor *domain.User) ([]*domain.User, error) {
			if actor != adminUser {
				t.Fatalf("actor not forwarded")
			}
			return []*domain.User{clientUser}, nil
		},
	}
	handler := NewClientHandler(stub)

	c, rec := newContext(http.MethodGet, "/api/clients", nil, "", adminUser)
	if err := handler.List(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var got []domain.User
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got) != 1 || got[0].ID != clientUser.ID {
		t.Fatalf("unexpected clients: %+v", got)
	}
}

func TestClientHandler_Get_PassesIDAndErrors(t *testing.T) {
	stub := &stubClientService{
		getFn: func(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
			if id != "other" {
				t.Fatalf("unexpected id %q", id)
			}
			return nil, domain.ErrForbidden
		},
	}
	handler := NewClientHandler(stub)

	c, _ := newContext(http.MethodGet, "/api/clients/other", nil, "", clientUser)
	c.SetParamNames("id")
	c.SetParamValues("other")
	if err := handler.Get(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestClientHandler_Create(t *testing.T) {
	stub := &stubClientService{
		createFn: func(ctx context.Context, actor *domain.User, input ports.CreateClientInput) (*domain.User, error) {
			want := ports.CreateClientInput{Name: "Acme Ops", Email: "ops@acme.test", Phone: "+5215500000000", Company: "Acme"}
			if input != want {
				t.Fatalf("unexpected input: %+v", input)
			}
			return &domain.User{ID: "c9", Name: input.Name, Email: input.Email, Role: domain.RoleClient, PasswordHash: "secret-hash"}, nil
		},
	}
	handler := NewClientHandler(stub)

	c, rec := jsonContext(http.MethodPost, "/api/clients",
		`{"name":"Acme Ops","email":"ops@acme.test","phone":"+5215500000000","company":"Acme"}`, adminUser)
	if err := handler.Create(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["id"] != "c9" {
		t.Fatalf("unexpected body: %v", body)
	}
	if _, ok := body["PasswordHash"]; ok {
		t.Fatalf("password hash leaked")
	}
}

func TestClientHandler_Create_Validation(t *testing.T) {
	handler := NewClientHandler(&stubClientService{})

	c, _ := jsonContext(http.MethodPost, "/api/clients", `{"name":"No Email"}`, adminUser)
	if err := handler.Create(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestClientHandler_Update_OnlySentFields(t *testing.T) {
	stub := &stubClientService{
		updateFn: func(ctx context.Context, actor *domain.User, id string, input ports.UpdateClientInput) (*domain.User, error) {
			if id != clientUser.ID {
				t.Fatalf("unexpected id %q", id)
			}
			if input.Phone == nil || *input.Phone != "+5215599999999" {
				t.Fatalf("phone not forwarded: %+v", input)
			}
			if input.Name != nil || input.Email != nil || input.Company != nil || input.Password != nil {
				t.Fatalf("unsent fields must stay nil: %+v", input)
			}
			return clientUser, nil
		},
	}
	handler := NewClientHandler(stub)

	c, rec := jsonContext(http.MethodPut, "/api/clients/"+clientUser.ID, `{"phone":"+5215599999999"}`, clientUser)
	c.SetParamNames("id")
	c.SetParamValues(clientUser.ID)
	if err := handler.Update(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestClientHandler_Update_ClientIgnoredFieldsAreNotValidated(t *testing.T) {
	calls := 0
	stub := &stubClientService{
		updateFn: func(ctx context.Context, actor *domain.User, id string, input ports.UpdateClientInput) (*domain.User, error) {
			calls++
			if input.Email != nil || input.Company != nil {
				t.Fatalf("admin-only fields must be dropped: %+v", input)
			}
			if input.Name == nil || *input.Name != "Renamed" {
				t.Fatalf("name not forwarded: %+v", input)
			}
			return clientUser, nil
		},
	}
	handler := NewClientHandler(stub)
	body := `{"name":"Renamed","email":"not-an-email"}`

	c, rec := jsonContext(http.MethodPut, "/api/clients/"+clientUser.ID, body, clientUser)
	c.SetParamNames("id")
	c.SetParamValues(clientUser.ID)
	if err := handler.Update(c); err != nil {
		t.Fatalf("client update: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, _ = jsonContext(http.MethodPut, "/api/clients/"+clientUser.ID, body, adminUser)
	c.SetParamNames("id")
	c.SetParamValues(clientUser.ID)
	if err := handler.Update(c); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for admin, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one service call, got %d", calls)
	}
}

func TestClientHandler_Delete(t *testing.T) {
	var deleted string
	stub := &stubClientService{
		deleteFn: func(ctx context.Context, actor *domain.User, id string) error {
			deleted = id
			return nil
		},
	}
	handler := NewClientHandler(stub)

	c, rec := newContext(http.MethodDelete, "/api/clients/c1", nil, "", adminUser)
	c.SetParamNames("id")
	c.SetParamValues("c1")
	if err := handler.Delete(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if deleted != "c1" {
		t.Fatalf("expected c1 deleted, got %q", deleted)
	}
	var resp messageResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || resp.Message != "client deleted" {
		t.Fatalf("unexpected response %q (%v)", rec.Body.String(), err)
	}
}
