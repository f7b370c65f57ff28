package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/gigflow/marketplace/internal/core/domain"
	"github.com/gigflow/marketplace/internal/core/ports"
	"github.com/gigflow/marketplace/internal/pkg/metrics"
)

// DefaultChannel is the Pub/Sub channel used when none is configured.
const DefaultChannel = "gigflow:notifications"

// Relay fans hire notifications out across API instances. A recipient
// connected to this instance is served by the local notifier directly; any
// other notification is published so the instance holding the recipient's
// connection can deliver it. Pub/Sub is at-most-once, which matches the
// best-effort contract of notifications.
type Relay struct {
	client   *redis.Client
	channel  string
	presence ports.PresenceRegistry
	local    ports.Notifier
	log      zerolog.Logger
}

var _ ports.Notifier = (*Relay)(nil)

// NewRelay wraps local with cross-instance delivery over channel.
func NewRelay(client *redis.Client, channel string, presence ports.PresenceRegistry, local ports.Notifier, log zerolog.Logger) *Relay {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Relay{
		client:   client,
		channel:  channel,
		presence: presence,
		local:    local,
		log:      log,
	}
}

// NotifyHired delivers locally when possible and publishes otherwise.
func (r *Relay) NotifyHired(ctx context.Context, n domain.Notification) ports.DeliveryOutcome {
	if _, ok := r.presence.Lookup(n.RecipientID); ok {
		return r.local.NotifyHired(ctx, n)
	}

	if err := r.publish(ctx, n); err != nil {
		r.log.Warn().Err(err).Str("recipient_id", n.RecipientID).Msg("notification relay failed")
		metrics.NotificationsTotal.WithLabelValues(string(ports.OutcomeFailed)).Inc()
		return ports.OutcomeFailed
	}
	metrics.NotificationsTotal.WithLabelValues(string(ports.OutcomeRelayed)).Inc()
	return ports.OutcomeRelayed
}

func (r *Relay) publish(ctx context.Context, n domain.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	return nil
}

// Run subscribes to the relay channel and hands every notification whose
// recipient is connected here to the local notifier. It blocks until ctx is
// cancelled or the subscription closes.
func (r *Relay) Run(ctx context.Context) error {
	pubsub := r.client.Subscribe(ctx, r.channel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed before reporting readiness.
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", r.channel, err)
	}
	r.log.Info().Str("channel", r.channel).Msg("notification relay subscribed")

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var n domain.Notification
			if err := json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				r.log.Warn().Err(err).Msg("malformed relayed notification skipped")
				continue
			}
			if _, online := r.presence.Lookup(n.RecipientID); !online {
				continue
			}
			r.local.NotifyHired(ctx, n)
		}
	}
}
