package ports

import (
	"context"
	"time"

	"github.com/99minutos/backoffice-api/internal/core/domain"
)

// CreateTaskInput carries the fields for a new task. Status defaults to pending.
type CreateTaskInput struct {
	Title       string
	Description string
	ClientID    string
	Deadline    time.Time
	Status      domain.TaskStatus
}

// ListTasksInput carries the optional list filters. ClientID is ignored for clients.
type ListTasksInput struct {
	ClientID string
	Status   domain.TaskStatus
}

// TaskService defines use-case operations for tasks.
type TaskService interface {
	List(ctx context.Context, actor *domain.User, input ListTasksInput) ([]*domain.Task, error)
	Get(ctx context.Context, actor *domain.User, id string) (*domain.Task, error)
	Create(ctx context.Context, actor *domain.User, input CreateTaskInput) (*domain.Task, error)
	Update(ctx context.Context, actor *domain.User, id string, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, actor *domain.User, id string) error
}
