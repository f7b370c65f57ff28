package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigflow/marketplace/internal/core/domain"
	"github.com/gigflow/marketplace/internal/core/ports"
)

type stubPresence struct {
	online map[string]bool
}

func (p stubPresence) Register(string, ports.Conn)             {}
func (p stubPresence) Unregister(ports.Conn) (string, bool)    { return "", false }
func (p stubPresence) Lookup(userID string) (ports.Conn, bool) { return nil, p.online[userID] }

type capturingNotifier struct {
	mu  sync.Mutex
	got []domain.Notification
}

func (c *capturingNotifier) NotifyHired(_ context.Context, n domain.Notification) ports.DeliveryOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.got = append(c.got, n)
	return ports.OutcomeDelivered
}

func (c *capturingNotifier) recipients() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.got))
	for _, n := range c.got {
		out = append(out, n.RecipientID)
	}
	return out
}

func setupRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), Config{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func note(recipient string) domain.Notification {
	return domain.Notification{
		RecipientID: recipient,
		Type:        domain.EventHired,
		Message:     `You have been hired for "Logo"!`,
		GigID:       "g1",
		BidID:       "b1",
		CreatedAt:   time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func TestConnect_FailsWithoutServer(t *testing.T) {
	_, err := Connect(context.Background(), Config{Addr: "127.0.0.1:1", Timeout: 200 * time.Millisecond})
	assert.Error(t, err)
}

func TestConnect_UsesPassword(t *testing.T) {
	mr := miniredis.RunT(t)
	mr.RequireAuth("hunter2")

	_, err := Connect(context.Background(), Config{Addr: mr.Addr(), Timeout: time.Second})
	assert.Error(t, err, "ping without credentials must fail")

	client, err := Connect(context.Background(), Config{Addr: mr.Addr(), Password: "hunter2"})
	require.NoError(t, err)
	_ = client.Close()
}

func TestRelay_LocalRecipientSkipsRedis(t *testing.T) {
	client := setupRedis(t)
	local := &capturingNotifier{}
	relay := NewRelay(client, "", stubPresence{online: map[string]bool{"u1": true}}, local, zerolog.Nop())

	outcome := relay.NotifyHired(context.Background(), note("u1"))

	assert.Equal(t, ports.OutcomeDelivered, outcome)
	assert.Equal(t, []string{"u1"}, local.recipients())
}

func TestRelay_RemoteRecipientIsPublishedAndDelivered(t *testing.T) {
	client := setupRedis(t)

	// instance A has nobody online; instance B holds u2's connection
	senderLocal := &capturingNotifier{}
	sender := NewRelay(client, "test:notifications", stubPresence{}, senderLocal, zerolog.Nop())

	receiverLocal := &capturingNotifier{}
	receiver := NewRelay(client, "test:notifications", stubPresence{online: map[string]bool{"u2": true}}, receiverLocal, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- receiver.Run(ctx) }()

	// wait for the subscription to register before publishing
	require.Eventually(t, func() bool {
		n, err := client.PubSubNumSub(ctx, "test:notifications").Result()
		return err == nil && n["test:notifications"] > 0
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, ports.OutcomeRelayed, sender.NotifyHired(ctx, note("u2")))
	assert.Equal(t, ports.OutcomeRelayed, sender.NotifyHired(ctx, note("ghost")))

	require.Eventually(t, func() bool {
		return len(receiverLocal.recipients()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"u2"}, receiverLocal.recipients())
	assert.Empty(t, senderLocal.recipients())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop after cancel")
	}
}
