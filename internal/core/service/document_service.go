package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/backoffice-api/internal/core/domain"
	"github.com/99minutos/backoffice-api/internal/core/ports"
	"github.com/99minutos/backoffice-api/internal/metrics"
)

// DefaultMaxUploadBytes is the per-file upload ceiling (10 MiB).
const DefaultMaxUploadBytes int64 = 10 << 20

type DocumentService struct {
	docs     ports.DocumentRepository
	users    ports.UserRepository
	tasks    ports.TaskRepository
	storage  ports.StorageResolver
	notifier ports.Notifier
	logger   zerolog.Logger
	maxBytes int64
	now      func() time.Time
}

func NewDocumentService(
	docs ports.DocumentRepository,
	users ports.UserRepository,
	tasks ports.TaskRepository,
	storage ports.StorageResolver,
	notifier ports.Notifier,
	maxBytes int64,
	logger zerolog.Logger,
) *DocumentService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	return &DocumentService{
		docs:     docs,
		users:    users,
		tasks:    tasks,
		storage:  storage,
		notifier: notifier,
		logger:   logger,
		maxBytes: maxBytes,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// MaxUploadBytes is the configured per-file ceiling.
func (s *DocumentService) MaxUploadBytes() int64 {
	return s.maxBytes
}

func (s *DocumentService) List(ctx context.Context, actor *domain.User, filter ports.DocumentFilter) ([]*domain.Document, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	filter.ClientID = scopeClient(actor, filter.ClientID)
	return s.docs.List(ctx, filter)
}

func (s *DocumentService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Document, error) {
	doc, err := s.docs.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, doc.ClientID); err != nil {
		return nil, err
	}
	return doc, nil
}

// Upload stores the file with the active backend and records the document.
// Oversized files are rejected before anything is stored.
func (s *DocumentService) Upload(ctx context.Context, actor *domain.User, in ports.UploadDocumentInput) (*domain.Document, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}
	if in.File.Body == nil {
		return nil, fmt.Errorf("%w: file is required", domain.ErrInvalidInput)
	}
	if in.File.Size > s.maxBytes {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", domain.ErrPayloadTooLarge, s.maxBytes)
	}

	owner := actor
	if actor.IsAdmin() && in.ClientID != "" && in.ClientID != actor.ID {
		client, err := s.users.FindByID(ctx, in.ClientID)
		if err != nil {
			if errors.Is(err, domain.ErrUserNotFound) {
				return nil, domain.ErrClientNotFound
			}
			return nil, err
		}
		if client.Role != domain.RoleClient {
			return nil, domain.ErrClientNotFound
		}
		owner = client
	}

	if in.TaskID != "" {
		task, err := s.tasks.FindByID(ctx, in.TaskID)
		if err != nil {
			return nil, err
		}
		if task.ClientID != owner.ID {
			return nil, fmt.Errorf("%w: task does not belong to this client", domain.ErrTaskNotFound)
		}
	}

	fileName := filepath.Base(strings.TrimSpace(in.File.Name))
	if fileName == "." || fileName == string(filepath.Separator) {
		fileName = ""
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = fileName
	}
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	contentType := in.File.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	backend := s.storage.Active()
	ref, err := backend.Store(ctx, ports.FileInput{
		Name:        fileName,
		ContentType: contentType,
		Size:        in.File.Size,
		Body:        in.File.Body,
	})
	if err != nil {
		return nil, fmt.Errorf("store file: %w", err)
	}

	doc, err := s.docs.Create(ctx, &domain.Document{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		FileName:    fileName,
		FileType:    contentType,
		Size:        in.File.Size,
		ClientID:    owner.ID,
		UploadedBy:  actor.ID,
		TaskID:      in.TaskID,
		Storage:     ref,
		CreatedAt:   s.now(),
	})
	if err != nil {
		if delErr := backend.Delete(ctx, ref); delErr != nil {
			s.logger.Warn().Err(delErr).Str("location", ref.Location).Msg("failed to remove orphaned upload")
		}
		return nil, err
	}
	metrics.DocumentsUploadedTotal.WithLabelValues(string(ref.Strategy)).Inc()

	if owner.ID != actor.ID && owner.Phone != "" {
		s.notifier.Notify(domain.Notification{
			Event:    domain.EventDocumentUploaded,
			EntityID: doc.ID,
			Phone:    owner.Phone,
			Message:  fmt.Sprintf("A new document %q has been shared with you.", doc.Name),
		})
	}

	s.logger.Info().
		Str("document_id", doc.ID).
		Str("client_id", owner.ID).
		Str("strategy", string(ref.Strategy)).
		Int64("size", doc.Size).
		Msg("document uploaded")
	return doc, nil
}

// Download resolves the backend that wrote the document and retrieves it.
func (s *DocumentService) Download(ctx context.Context, actor *domain.User, id string) (*domain.Document, *ports.StoredObject, error) {
	doc, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	backend, err := s.storage.For(doc.Storage.Strategy)
	if err != nil {
		return nil, nil, err
	}
	obj, err := backend.Retrieve(ctx, doc.Storage)
	if err != nil {
		return nil, nil, err
	}
	if obj.ContentType == "" {
		obj.ContentType = doc.FileType
	}
	return doc, obj, nil
}

// Delete removes the blob (best effort) and then the record.
func (s *DocumentService) Delete(ctx context.Context, actor *domain.User, id string) error {
	doc, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	removeBlob(ctx, s.storage, doc, s.logger)
	return s.docs.Delete(ctx, doc.ID)
}

// removeBlob deletes a document's bytes through the backend named on the
// record. Failures are logged; the record is removed regardless.
func removeBlob(ctx context.Context, storage ports.StorageResolver, doc *domain.Document, logger zerolog.Logger) {
	backend, err := storage.For(doc.Storage.Strategy)
	if err != nil {
		logger.Warn().Err(err).
			Str("document_id", doc.ID).
			Str("strategy", string(doc.Storage.Strategy)).
			Msg("blob left in place: backend unavailable")
		return
	}
	if err := backend.Delete(ctx, doc.Storage); err != nil {
		logger.Warn().Err(err).
			Str("document_id", doc.ID).
			Str("location", doc.Storage.Location).
			Msg("failed to delete blob")
	}
}
