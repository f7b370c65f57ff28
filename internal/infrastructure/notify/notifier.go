// Package notify delivers hire notifications to connected freelancers.
package notify

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/gigflow/marketplace/internal/core/domain"
	"github.com/gigflow/marketplace/internal/core/ports"
	"github.com/gigflow/marketplace/internal/pkg/metrics"
)

// Notifier pushes a notification to the recipient's live connection on this
// instance. Offline recipients are skipped silently; nothing is queued.
type Notifier struct {
	presence ports.PresenceRegistry
	log      zerolog.Logger
}

var _ ports.Notifier = (*Notifier)(nil)

func NewNotifier(presence ports.PresenceRegistry, log zerolog.Logger) *Notifier {
	return &Notifier{presence: presence, log: log}
}

// NotifyHired looks the recipient up and sends without blocking. A full or
// closed connection counts as a failed delivery.
func (n *Notifier) NotifyHired(_ context.Context, note domain.Notification) ports.DeliveryOutcome {
	outcome := n.deliver(note)
	metrics.NotificationsTotal.WithLabelValues(string(outcome)).Inc()
	return outcome
}

func (n *Notifier) deliver(note domain.Notification) ports.DeliveryOutcome {
	conn, ok := n.presence.Lookup(note.RecipientID)
	if !ok {
		n.log.Debug().Str("recipient_id", note.RecipientID).Msg("recipient offline, notification skipped")
		return ports.OutcomeOffline
	}
	if err := conn.Send(note); err != nil {
		n.log.Warn().Err(err).
			Str("recipient_id", note.RecipientID).
			Str("conn_id", conn.ID()).
			Msg("notification delivery failed")
		return ports.OutcomeFailed
	}
	n.log.Info().
		Str("recipient_id", note.RecipientID).
		Str("gig_id", note.GigID).
		Msg("hire notification delivered")
	return ports.OutcomeDelivered
}
