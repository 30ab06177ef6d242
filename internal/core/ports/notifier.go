package ports

import (
	"context"

	"github.com/99minutos/backoffice-api/internal/core/domain"
)

// Notifier accepts outbound notifications. Notify never blocks on delivery
// and never reports delivery failures.
type Notifier interface {
	Notify(n domain.Notification)
}

// NotificationSender performs the actual delivery of one notification.
type NotificationSender interface {
	Send(ctx context.Context, phone, message string) error
}

// NotificationDedup suppresses replays of a notification that already went
// out. Claim reports whether the caller is the first to deliver n; Release
// undoes a claim after a failed delivery.
type NotificationDedup interface {
	Claim(ctx context.Context, n domain.Notification) (bool, error)
	Release(ctx context.Context, n domain.Notification) error
}
