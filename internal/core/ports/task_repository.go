package ports

import (
	"context"
	"time"

	"github.com/99minutos/backoffice-api/internal/core/domain"
)

// TaskFilter narrows a task listing. ClientID is enforced by the service
// layer for non-admin callers.
type TaskFilter struct {
	ClientID     string
	Statuses     []domain.TaskStatus
	DeadlineFrom time.Time // exclusive
	DeadlineTo   time.Time // inclusive
}

// TaskRepository defines persistence operations for tasks.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	FindByID(ctx context.Context, id string) (*domain.Task, error)
	// List returns matching tasks ordered by deadline ascending.
	List(ctx context.Context, filter TaskFilter) ([]*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
	DeleteByClient(ctx context.Context, clientID string) (int64, error)
}
