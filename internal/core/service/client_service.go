package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/backoffice-api/internal/core/domain"
	"github.com/99minutos/backoffice-api/internal/core/ports"
)

// ClientService manages client accounts and cascades their removal.
type ClientService struct {
	users   ports.UserRepository
	tasks   ports.TaskRepository
	docs    ports.DocumentRepository
	storage ports.StorageResolver
	logger  zerolog.Logger
}

func NewClientService(
	users ports.UserRepository,
	tasks ports.TaskRepository,
	docs ports.DocumentRepository,
	storage ports.StorageResolver,
	logger zerolog.Logger,
) *ClientService {
	return &ClientService{users: users, tasks: tasks, docs: docs, storage: storage, logger: logger}
}

// List returns every client for admins, and only the caller otherwise.
func (s *ClientService) List(ctx context.Context, actor *domain.User) ([]*domain.User, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	if !actor.IsAdmin() {
		return []*domain.User{actor}, nil
	}
	return s.users.List(ctx, ports.UserFilter{Role: domain.RoleClient})
}

func (s *ClientService) Get(ctx context.Context, actor *domain.User, id string) (*domain.User, error) {
	client, err := s.findClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, client.ID); err != nil {
		return nil, err
	}
	return client, nil
}

func (s *ClientService) Create(ctx context.Context, actor *domain.User, in ports.CreateClientInput) (*domain.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(in.Name)
	email := domain.NormalizeEmail(in.Email)
	if name == "" || email == "" {
		return nil, fmt.Errorf("%w: name and email are required", domain.ErrInvalidInput)
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	password := in.Password
	if password == "" {
		generated, err := randomPassword()
		if err != nil {
			return nil, fmt.Errorf("generate password: %w", err)
		}
		password = generated
	}
	hash, err := hashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	created, err := s.users.Create(ctx, &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(in.Phone),
		Company:      strings.TrimSpace(in.Company),
		Role:         domain.RoleClient,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("client_id", created.ID).Str("admin_id", actor.ID).Msg("client created")
	return created, nil
}

// Update applies the caller's allowed fields: admins may change anything,
// clients may change their own name, phone and password.
func (s *ClientService) Update(ctx context.Context, actor *domain.User, id string, in ports.UpdateClientInput) (*domain.User, error) {
	client, err := s.findClient(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, client.ID); err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		in.Email = nil
		in.Company = nil
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrInvalidInput)
		}
		client.Name = name
	}
	if in.Email != nil {
		email := domain.NormalizeEmail(*in.Email)
		if email == "" {
			return nil, fmt.Errorf("%w: email cannot be empty", domain.ErrInvalidInput)
		}
		if email != client.Email {
			if _, err := s.users.FindByEmail(ctx, email); err == nil {
				return nil, domain.ErrUserExists
			} else if !errors.Is(err, domain.ErrUserNotFound) {
				return nil, err
			}
		}
		client.Email = email
	}
	if in.Phone != nil {
		client.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.Company != nil {
		client.Company = strings.TrimSpace(*in.Company)
	}
	if in.Password != nil {
		if *in.Password == "" {
			return nil, fmt.Errorf("%w: password cannot be empty", domain.ErrInvalidInput)
		}
		hash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		client.PasswordHash = hash
	}

	client.UpdatedAt = time.Now().UTC()
	return s.users.Update(ctx, client)
}

// Delete removes a client together with their documents (records and blobs)
// and tasks. Blob removal failures are logged and do not stop the cascade.
func (s *ClientService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	client, err := s.findClient(ctx, id)
	if err != nil {
		return err
	}

	docs, err := s.docs.List(ctx, ports.DocumentFilter{ClientID: client.ID})
	if err != nil {
		return fmt.Errorf("list client documents: %w", err)
	}
	for _, doc := range docs {
		removeBlob(ctx, s.storage, doc, s.logger)
		if err := s.docs.Delete(ctx, doc.ID); err != nil && !errors.Is(err, domain.ErrDocumentNotFound) {
			return fmt.Errorf("delete document %s: %w", doc.ID, err)
		}
	}

	removed, err := s.tasks.DeleteByClient(ctx, client.ID)
	if err != nil {
		return fmt.Errorf("delete client tasks: %w", err)
	}

	if err := s.users.Delete(ctx, client.ID); err != nil {
		return err
	}

	s.logger.Info().
		Str("client_id", client.ID).
		Int("documents", len(docs)).
		Int64("tasks", removed).
		Msg("client deleted")
	return nil
}

// findClient loads a user and hides non-client accounts behind ErrClientNotFound.
func (s *ClientService) findClient(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, domain.ErrClientNotFound
		}
		return nil, err
	}
	if user.Role != domain.RoleClient {
		return nil, domain.ErrClientNotFound
	}
	return user, nil
}
