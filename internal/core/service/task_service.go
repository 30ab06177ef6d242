package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/backoffice-api/internal/core/domain"
	"github.com/99minutos/backoffice-api/internal/core/ports"
	"github.com/99minutos/backoffice-api/internal/metrics"
)

const deadlineLayout = "2006-01-02 15:04 MST"

type TaskService struct {
	tasks    ports.TaskRepository
	users    ports.UserRepository
	docs     ports.DocumentRepository
	notifier ports.Notifier
	logger   zerolog.Logger
	now      func() time.Time
}

func NewTaskService(
	tasks ports.TaskRepository,
	users ports.UserRepository,
	docs ports.DocumentRepository,
	notifier ports.Notifier,
	logger zerolog.Logger,
) *TaskService {
	return &TaskService{
		tasks:    tasks,
		users:    users,
		docs:     docs,
		notifier: notifier,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// List returns tasks ordered by deadline. Non-admins only ever see their own.
func (s *TaskService) List(ctx context.Context, actor *domain.User, in ports.ListTasksInput) ([]*domain.Task, error) {
	if actor == nil {
		return nil, domain.ErrUnauthenticated
	}

	filter := ports.TaskFilter{ClientID: scopeClient(actor, in.ClientID)}
	if in.Status != "" {
		if !in.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, in.Status)
		}
		filter.Statuses = []domain.TaskStatus{in.Status}
	}
	return s.tasks.List(ctx, filter)
}

func (s *TaskService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := authorize(actor, task.ClientID); err != nil {
		return nil, err
	}
	return task, nil
}

// Create assigns a new task to a client and notifies them.
func (s *TaskService) Create(ctx context.Context, actor *domain.User, in ports.CreateTaskInput) (*domain.Task, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrInvalidInput)
	}
	if in.ClientID == "" {
		return nil, fmt.Errorf("%w: clientId is required", domain.ErrInvalidInput)
	}
	if in.Deadline.IsZero() {
		return nil, fmt.Errorf("%w: deadline is required", domain.ErrInvalidInput)
	}
	now := s.now()
	if in.Deadline.Before(now) {
		return nil, fmt.Errorf("%w: deadline must be in the future", domain.ErrInvalidInput)
	}
	status := in.Status
	if status == "" {
		status = domain.TaskPending
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, status)
	}

	client, err := s.resolveClient(ctx, in.ClientID)
	if err != nil {
		return nil, err
	}

	task := &domain.Task{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		ClientID:    client.ID,
		CreatedBy:   actor.ID,
		Deadline:    in.Deadline.UTC(),
		Status:      status,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if status == domain.TaskCompleted {
		task.CompletedAt = &now
	}

	created, err := s.tasks.Create(ctx, task)
	if err != nil {
		s.logger.Error().Err(err).Str("client_id", client.ID).Msg("failed to create task")
		return nil, err
	}
	metrics.TasksCreatedTotal.Inc()

	s.notify(client, domain.EventTaskAssigned, created.ID, "",
		fmt.Sprintf("New task assigned: %q, due %s.", created.Title, created.Deadline.Format(deadlineLayout)))

	s.logger.Info().Str("task_id", created.ID).Str("client_id", client.ID).Msg("task created")
	return created, nil
}

// Update applies a patch. Clients may only change status; every other field
// in their patch is discarded. Entering completed notifies the client.
func (s *TaskService) Update(ctx context.Context, actor *domain.User, id string, patch domain.TaskPatch) (*domain.Task, error) {
	task, err := s.Get(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	if !actor.IsAdmin() {
		patch = patch.StatusOnly()
	}
	if patch.Empty() {
		return task, nil
	}

	previous := task.Status
	var client *domain.User

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", domain.ErrInvalidInput)
		}
		task.Title = title
	}
	if patch.Description != nil {
		task.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Deadline != nil {
		if patch.Deadline.IsZero() {
			return nil, fmt.Errorf("%w: deadline cannot be empty", domain.ErrInvalidInput)
		}
		task.Deadline = patch.Deadline.UTC()
	}
	if patch.ClientID != nil && *patch.ClientID != task.ClientID {
		client, err = s.resolveClient(ctx, *patch.ClientID)
		if err != nil {
			return nil, err
		}
		task.ClientID = client.ID
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", domain.ErrInvalidInput, *patch.Status)
		}
		task.Status = *patch.Status
	}

	now := s.now()
	completedNow := task.Status == domain.TaskCompleted && previous != domain.TaskCompleted
	switch {
	case completedNow:
		task.CompletedAt = &now
	case task.Status != domain.TaskCompleted:
		task.CompletedAt = nil
	}
	task.UpdatedAt = now

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, err
	}

	if completedNow {
		metrics.TasksCompletedTotal.Inc()
		if client == nil {
			client, err = s.users.FindByID(ctx, task.ClientID)
			if err != nil {
				s.logger.Warn().Err(err).Str("task_id", task.ID).Msg("completion notification skipped: client lookup failed")
			}
		}
		s.notify(client, domain.EventTaskCompleted, task.ID, strconv.FormatInt(now.UnixNano(), 10),
			fmt.Sprintf("Task %q has been marked as completed.", task.Title))
	}

	s.logger.Info().
		Str("task_id", task.ID).
		Str("status", string(task.Status)).
		Str("actor_id", actor.ID).
		Msg("task updated")
	return task, nil
}

// Delete removes a task. Documents that referenced it keep their record.
func (s *TaskService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if err := requireAdmin(actor); err != nil {
		return err
	}
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, task.ID); err != nil {
		return err
	}
	if err := s.docs.UnlinkTask(ctx, task.ID); err != nil {
		s.logger.Warn().Err(err).Str("task_id", task.ID).Msg("failed to unlink documents from deleted task")
	}
	return nil
}

// resolveClient loads a user that must exist and hold the client role.
func (s *TaskService) resolveClient(ctx context.Context, id string) (*domain.User, error) {
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

func (s *TaskService) notify(client *domain.User, event domain.NotificationEvent, entityID, occurrence, message string) {
	if client == nil || client.Phone == "" {
		return
	}
	s.notifier.Notify(domain.Notification{
		Event:      event,
		EntityID:   entityID,
		Occurrence: occurrence,
		Phone:      client.Phone,
		Message:    message,
	})
}
