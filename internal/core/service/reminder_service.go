package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/backoffice-api/internal/core/domain"
	"github.com/99minutos/backoffice-api/internal/core/ports"
)

// ReminderService notifies clients about open tasks whose deadline is near.
type ReminderService struct {
	tasks    ports.TaskRepository
	users    ports.UserRepository
	notifier ports.Notifier
	window   time.Duration
	logger   zerolog.Logger
}

func NewReminderService(
	tasks ports.TaskRepository,
	users ports.UserRepository,
	notifier ports.Notifier,
	window time.Duration,
	logger zerolog.Logger,
) *ReminderService {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &ReminderService{tasks: tasks, users: users, notifier: notifier, window: window, logger: logger}
}

// SendDueSoon enqueues a reminder for every open task due in (now, now+window]
// and returns how many were enqueued.
func (s *ReminderService) SendDueSoon(ctx context.Context, now time.Time) (int, error) {
	tasks, err := s.tasks.List(ctx, ports.TaskFilter{
		Statuses:     []domain.TaskStatus{domain.TaskPending, domain.TaskInProgress},
		DeadlineFrom: now,
		DeadlineTo:   now.Add(s.window),
	})
	if err != nil {
		return 0, fmt.Errorf("list due tasks: %w", err)
	}

	clients := make(map[string]*domain.User)
	sent := 0
	for _, task := range tasks {
		client, ok := clients[task.ClientID]
		if !ok {
			client, err = s.users.FindByID(ctx, task.ClientID)
			if err != nil {
				s.logger.Warn().Err(err).Str("task_id", task.ID).Msg("reminder skipped: client lookup failed")
				client = nil
			}
			clients[task.ClientID] = client
		}
		if client == nil || client.Phone == "" {
			continue
		}

		s.notifier.Notify(domain.Notification{
			Event:      domain.EventTaskDueSoon,
			EntityID:   task.ID,
			Occurrence: strconv.FormatInt(task.Deadline.Unix(), 10),
			Phone:      client.Phone,
			Message:    fmt.Sprintf("Reminder: task %q is due %s.", task.Title, task.Deadline.Format(deadlineLayout)),
		})
		sent++
	}

	s.logger.Info().Int("due", len(tasks)).Int("notified", sent).Msg("deadline reminders enqueued")
	return sent, nil
}
