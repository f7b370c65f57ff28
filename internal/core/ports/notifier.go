package ports

import (
	"context"

	"github.com/gigflow/marketplace/internal/core/domain"
)

// DeliveryOutcome records what happened to a best-effort notification.
type DeliveryOutcome string

const (
	OutcomeDelivered DeliveryOutcome = "delivered"
	OutcomeOffline   DeliveryOutcome = "offline"
	OutcomeFailed    DeliveryOutcome = "failed"
	OutcomeRelayed   DeliveryOutcome = "relayed"
	OutcomeDropped   DeliveryOutcome = "dropped"
)

// Notifier delivers a notification to its recipient. It never returns an
// error: the outcome is for logs and metrics only.
type Notifier interface {
	NotifyHired(ctx context.Context, n domain.Notification) DeliveryOutcome
}

// NotificationSink accepts side effects emitted after a commit. Enqueue must
// not block; it reports false when the notification had to be dropped.
type NotificationSink interface {
	Enqueue(n domain.Notification) bool
}
