package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigflow/marketplace/internal/core/domain"
	"github.com/gigflow/marketplace/internal/core/ports"
	"github.com/gigflow/marketplace/internal/core/service"
	"github.com/gigflow/marketplace/internal/infrastructure/db/memory"
	"github.com/gigflow/marketplace/internal/infrastructure/notify"
	"github.com/gigflow/marketplace/internal/infrastructure/presence"
	"github.com/gigflow/marketplace/internal/infrastructure/ws"
)

const testSecret = "router-test-secret"

type testServer struct {
	url      string
	presence *presence.Registry
	outcomes chan ports.DeliveryOutcome
}

// observedNotifier reports every delivery outcome so tests can wait for the
// asynchronous dispatch to finish.
type observedNotifier struct {
	next     ports.Notifier
	outcomes chan ports.DeliveryOutcome
}

func (o observedNotifier) NotifyHired(ctx context.Context, n domain.Notification) ports.DeliveryOutcome {
	out := o.next.NotifyHired(ctx, n)
	select {
	case o.outcomes <- out:
	default:
	}
	return out
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()

	store := memory.NewStore()
	store.AddUser(domain.User{ID: "client", Name: "Client", Email: "client@example.com"})
	store.AddUser(domain.User{ID: "fl-1", Name: "Freelancer One"})
	store.AddUser(domain.User{ID: "fl-2", Name: "Freelancer Two"})

	registry := presence.NewRegistry()
	outcomes := make(chan ports.DeliveryOutcome, 16)
	notifier := observedNotifier{next: notify.NewNotifier(registry, log), outcomes: outcomes}
	dispatcher := notify.NewDispatcher(2, 16, notifier, log)
	ctx, cancel := context.WithCancel(context.Background())
	dispatcher.Start(ctx)

	e := NewRouter(Dependencies{
		Gigs:      service.NewGigService(store, log),
		Bids:      service.NewBidService(store, dispatcher, log),
		Store:     store,
		Presence:  registry,
		Upgrader:  ws.NewUpgrader(nil, ws.Options{}),
		JWTSecret: testSecret,
		Logger:    log,
	})
	srv := httptest.NewServer(e)
	t.Cleanup(func() {
		registry.Close()
		srv.Close()
		cancel()
	})
	return &testServer{url: srv.URL, presence: registry, outcomes: outcomes}
}

func token(t *testing.T, userID string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

// do sends a JSON request as userID (anonymous when empty) and decodes the
// response body into out when out is non-nil.
func (s *testServer) do(t *testing.T, method, path, userID string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, s.url+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("Authorization", "Bearer "+token(t, userID))
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type idBody struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type errBody struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func TestRouter_HireFlowPushesToOnlineFreelancer(t *testing.T) {
	s := newTestServer(t)

	var gig idBody
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/gigs", "client",
		map[string]any{"title": "Landing page", "description": "One page site", "budget": 500}, &gig))

	var bid1, bid2 idBody
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/bids", "fl-1",
		map[string]any{"gig_id": gig.ID, "message": "I can build it", "price": "450"}, &bid1))
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/bids", "fl-2",
		map[string]any{"gig_id": gig.ID, "message": "Me too please", "price": 400}, &bid2))

	// fl-1 goes online before the hire
	wsURL := "ws" + strings.TrimPrefix(s.url, "http") + "/ws?token=" + token(t, "fl-1")
	client, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	defer client.Close()

	var hire struct {
		Message string `json:"message"`
		Gig     idBody `json:"gig"`
		Bid     idBody `json:"bid"`
	}
	// registration lands just after the handshake completes
	require.Eventually(t, func() bool {
		_, ok := s.presence.Lookup("fl-1")
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPatch, "/api/bids/"+bid1.ID+"/hire", "client", nil, &hire))
	assert.Equal(t, "Freelancer hired successfully", hire.Message)
	assert.Equal(t, "assigned", hire.Gig.Status)
	assert.Equal(t, "hired", hire.Bid.Status)

	_ = client.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event domain.Notification
	require.NoError(t, client.ReadJSON(&event))
	assert.Equal(t, domain.EventHired, event.Type)
	assert.Equal(t, `You have been hired for "Landing page"!`, event.Message)
	assert.Equal(t, bid1.ID, event.BidID)

	var bids []idBody
	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/gigs/"+gig.ID+"/bids", "client", nil, &bids))
	statuses := map[string]string{}
	for _, b := range bids {
		statuses[b.ID] = b.Status
	}
	assert.Equal(t, "hired", statuses[bid1.ID])
	assert.Equal(t, "rejected", statuses[bid2.ID])

	var again errBody
	require.Equal(t, http.StatusConflict, s.do(t, http.MethodPatch, "/api/bids/"+bid2.ID+"/hire", "client", nil, &again))
	assert.Equal(t, "invalid_state", again.Code)
}

func TestRouter_ErrorEnvelope(t *testing.T) {
	s := newTestServer(t)

	var gig idBody
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/gigs", "client",
		map[string]any{"title": "Logo design", "description": "Vector logo", "budget": 120}, &gig))

	cases := []struct {
		name   string
		method string
		path   string
		user   string
		body   any
		status int
		code   string
	}{
		{"no token", http.MethodPost, "/api/gigs", "", map[string]any{}, http.StatusUnauthorized, "unauthorized"},
		{"validation filter", http.MethodPost, "/api/gigs", "client",
			map[string]any{"title": "Logo", "description": "Vector logo", "budget": -5}, http.StatusUnprocessableEntity, "validation_failed"},
		{"self bid", http.MethodPost, "/api/bids", "client",
			map[string]any{"gig_id": gig.ID, "message": "my own gig", "price": 10}, http.StatusForbidden, "forbidden"},
		{"unknown gig", http.MethodGet, "/api/gigs/nope", "", nil, http.StatusNotFound, "not_found"},
		{"not the owner", http.MethodGet, "/api/gigs/" + gig.ID + "/bids", "fl-1", nil, http.StatusForbidden, "forbidden"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got errBody
			assert.Equal(t, tc.status, s.do(t, tc.method, tc.path, tc.user, tc.body, &got))
			assert.Equal(t, tc.code, got.Code)
			assert.NotEmpty(t, got.Error)
		})
	}
}

func TestRouter_PublicAndOperationalRoutes(t *testing.T) {
	s := newTestServer(t)

	var gigs []idBody
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/api/gigs", "", nil, &gigs))
	assert.Empty(t, gigs)

	var ready struct {
		Status string `json:"status"`
	}
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/ready", "", nil, &ready))
	assert.Equal(t, "ok", ready.Status)

	resp, err := http.Get(s.url + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRouter_HireSucceedsWhenFreelancerWentOffline(t *testing.T) {
	s := newTestServer(t)

	var gig, bid idBody
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/gigs", "client",
		map[string]any{"title": "Data import", "description": "CSV to Postgres", "budget": 300}, &gig))
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/bids", "fl-2",
		map[string]any{"gig_id": gig.ID, "message": "Done this before", "price": 280}, &bid))

	wsURL := "ws" + strings.TrimPrefix(s.url, "http") + "/ws?token=" + token(t, "fl-2")
	dialOnline := func() *websocket.Conn {
		client, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Eventually(t, func() bool {
			_, ok := s.presence.Lookup("fl-2")
			return ok
		}, 2*time.Second, 10*time.Millisecond)
		return client
	}

	// fl-2 connects, then disconnects before the hire
	first := dialOnline()
	require.NoError(t, first.Close())
	require.Eventually(t, func() bool {
		_, ok := s.presence.Lookup("fl-2")
		return !ok
	}, 2*time.Second, 10*time.Millisecond)

	var hire struct {
		Message string `json:"message"`
		Bid     idBody `json:"bid"`
	}
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPatch, "/api/bids/"+bid.ID+"/hire", "client", nil, &hire))
	assert.Equal(t, "Freelancer hired successfully", hire.Message)
	assert.Equal(t, "hired", hire.Bid.Status)

	select {
	case outcome := <-s.outcomes:
		assert.Equal(t, ports.OutcomeOffline, outcome)
	case <-time.After(2 * time.Second):
		t.Fatal("hire notification was never dispatched")
	}

	// notifications are not queued for offline users
	second := dialOnline()
	defer second.Close()
	_ = second.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
	var event domain.Notification
	assert.Error(t, second.ReadJSON(&event), "no hire event should be delivered after reconnecting")
}
