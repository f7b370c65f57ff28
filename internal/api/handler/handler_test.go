package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/gigflow/marketplace/internal/api/middleware"
	"github.com/gigflow/marketplace/internal/core/domain"
	"github.com/gigflow/marketplace/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stub services
// ---------------------------------------------------------------------------

type stubGigService struct {
	createFn func(ctx context.Context, in ports.CreateGigInput) (*domain.Gig, error)
	getFn    func(ctx context.Context, id string) (*ports.GigView, error)
	deleteFn func(ctx context.Context, id, requesterID string) error
}

func (s *stubGigService) CreateGig(ctx context.Context, in ports.CreateGigInput) (*domain.Gig, error) {
	return s.createFn(ctx, in)
}

func (s *stubGigService) GetGig(ctx context.Context, id string) (*ports.GigView, error) {
	return s.getFn(ctx, id)
}

func (s *stubGigService) ListOpenGigs(context.Context) ([]ports.GigView, error) { return nil, nil }

func (s *stubGigService) ListMyGigs(context.Context, string) ([]*domain.Gig, error) { return nil, nil }

func (s *stubGigService) DeleteGig(ctx context.Context, id, requesterID string) error {
	return s.deleteFn(ctx, id, requesterID)
}

type stubBidService struct {
	ports.BidService
	placeFn  func(ctx context.Context, in ports.PlaceBidInput) (*domain.Bid, error)
	updateFn func(ctx context.Context, in ports.UpdateBidInput) (*domain.Bid, error)
	hireFn   func(ctx context.Context, bidID, requesterID string) (*ports.HireResult, error)
}

func (s *stubBidService) PlaceBid(ctx context.Context, in ports.PlaceBidInput) (*domain.Bid, error) {
	return s.placeFn(ctx, in)
}

func (s *stubBidService) UpdateBid(ctx context.Context, in ports.UpdateBidInput) (*domain.Bid, error) {
	return s.updateFn(ctx, in)
}

func (s *stubBidService) Hire(ctx context.Context, bidID, requesterID string) (*ports.HireResult, error) {
	return s.hireFn(ctx, bidID, requesterID)
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func newContext(method, path, body, userID string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if userID != "" {
		c.Set(middleware.ContextUserID, userID)
	}
	return c, rec
}

func httpStatus(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

// ---------------------------------------------------------------------------
// Gig handler
// ---------------------------------------------------------------------------

func TestGigHandler_Create_Success(t *testing.T) {
	var got ports.CreateGigInput
	svc := &stubGigService{createFn: func(_ context.Context, in ports.CreateGigInput) (*domain.Gig, error) {
		got = in
		return &domain.Gig{ID: "g1", Title: "Logo", Budget: decimal.RequireFromString("150.50"), OwnerID: in.OwnerID, Status: domain.GigOpen}, nil
	}}
	h := NewGigHandler(svc, &stubBidService{})

	c, rec := newContext(http.MethodPost, "/api/gigs", `{"title":"Logo","description":"A nice logo","budget":150.50}`, "u1")
	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if got.OwnerID != "u1" || got.Budget != "150.50" {
		t.Fatalf("unexpected service input: %+v", got)
	}

	var resp gigResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ID != "g1" || resp.Status != "open" || !resp.Budget.Equal(decimal.RequireFromString("150.5")) {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestGigHandler_Create_BudgetAsString(t *testing.T) {
	var got ports.CreateGigInput
	svc := &stubGigService{createFn: func(_ context.Context, in ports.CreateGigInput) (*domain.Gig, error) {
		got = in
		return &domain.Gig{ID: "g1"}, nil
	}}
	h := NewGigHandler(svc, &stubBidService{})

	c, _ := newContext(http.MethodPost, "/api/gigs", `{"title":"Logo","description":"A nice logo","budget":"99.99"}`, "u1")
	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Budget != "99.99" {
		t.Fatalf("expected raw budget 99.99, got %q", got.Budget)
	}
}

func TestGigHandler_Create_RequestShape(t *testing.T) {
	called := false
	svc := &stubGigService{createFn: func(context.Context, ports.CreateGigInput) (*domain.Gig, error) {
		called = true
		return &domain.Gig{}, nil
	}}
	h := NewGigHandler(svc, &stubBidService{})

	cases := []struct {
		name string
		body string
		want int
	}{
		{"malformed json", `{"title":`, http.StatusBadRequest},
		{"budget is an object", `{"title":"Logo","description":"A nice logo","budget":{}}`, http.StatusBadRequest},
		{"missing budget", `{"title":"Logo","description":"A nice logo"}`, http.StatusUnprocessableEntity},
		{"missing title", `{"description":"A nice logo","budget":10}`, http.StatusUnprocessableEntity},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newContext(http.MethodPost, "/api/gigs", tc.body, "u1")
			if code := httpStatus(t, h.Create(c)); code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, code)
			}
		})
	}
	if called {
		t.Fatalf("service must not be called for rejected requests")
	}
}

func TestGigHandler_Create_RequiresIdentity(t *testing.T) {
	h := NewGigHandler(&stubGigService{}, &stubBidService{})
	c, _ := newContext(http.MethodPost, "/api/gigs", `{}`, "")
	if code := httpStatus(t, h.Create(c)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestGigHandler_Get_PassesDomainErrorThrough(t *testing.T) {
	svc := &stubGigService{getFn: func(context.Context, string) (*ports.GigView, error) {
		return nil, domain.ErrGigNotFound
	}}
	h := NewGigHandler(svc, &stubBidService{})

	c, _ := newContext(http.MethodGet, "/api/gigs/missing", "", "")
	c.SetParamNames("id")
	c.SetParamValues("missing")

	if err := h.Get(c); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGigHandler_Get_IncludesOwner(t *testing.T) {
	svc := &stubGigService{getFn: func(_ context.Context, id string) (*ports.GigView, error) {
		return &ports.GigView{
			Gig:   &domain.Gig{ID: id, OwnerID: "u1", Status: domain.GigOpen},
			Owner: domain.UserSummary{ID: "u1", Name: "Client", Email: "client@example.com"},
		}, nil
	}}
	h := NewGigHandler(svc, &stubBidService{})

	c, rec := newContext(http.MethodGet, "/api/gigs/g1", "", "")
	c.SetParamNames("id")
	c.SetParamValues("g1")
	if err := h.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp gigResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Owner == nil || resp.Owner.Name != "Client" {
		t.Fatalf("owner not resolved: %+v", resp.Owner)
	}
}

func TestGigHandler_Delete(t *testing.T) {
	var gotID, gotRequester string
	svc := &stubGigService{deleteFn: func(_ context.Context, id, requesterID string) error {
		gotID, gotRequester = id, requesterID
		return nil
	}}
	h := NewGigHandler(svc, &stubBidService{})

	c, rec := newContext(http.MethodDelete, "/api/gigs/g1", "", "u1")
	c.SetParamNames("id")
	c.SetParamValues("g1")
	if err := h.Delete(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK || gotID != "g1" || gotRequester != "u1" {
		t.Fatalf("unexpected call: code=%d id=%s requester=%s", rec.Code, gotID, gotRequester)
	}
}

// ---------------------------------------------------------------------------
// Bid handler
// ---------------------------------------------------------------------------

func TestBidHandler_Place_Success(t *testing.T) {
	var got ports.PlaceBidInput
	svc := &stubBidService{placeFn: func(_ context.Context, in ports.PlaceBidInput) (*domain.Bid, error) {
		got = in
		return &domain.Bid{ID: "b1", GigID: in.GigID, FreelancerID: in.FreelancerID, Status: domain.BidPending, Price: decimal.NewFromInt(90)}, nil
	}}
	h := NewBidHandler(svc)

	c, rec := newContext(http.MethodPost, "/api/bids", `{"gig_id":"g1","message":"I can do this","price":90}`, "u2")
	if err := h.Place(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if got.FreelancerID != "u2" || got.GigID != "g1" || got.Price != "90" {
		t.Fatalf("unexpected service input: %+v", got)
	}
}

func TestBidHandler_Place_ForbiddenPassesThrough(t *testing.T) {
	svc := &stubBidService{placeFn: func(context.Context, ports.PlaceBidInput) (*domain.Bid, error) {
		return nil, domain.ErrForbidden
	}}
	h := NewBidHandler(svc)

	c, _ := newContext(http.MethodPost, "/api/bids", `{"gig_id":"g1","message":"My own gig","price":90}`, "u1")
	if err := h.Place(c); !errors.Is(err, domain.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestBidHandler_Update_PartialFields(t *testing.T) {
	var got ports.UpdateBidInput
	svc := &stubBidService{updateFn: func(_ context.Context, in ports.UpdateBidInput) (*domain.Bid, error) {
		got = in
		return &domain.Bid{ID: in.BidID}, nil
	}}
	h := NewBidHandler(svc)

	c, rec := newContext(http.MethodPatch, "/api/bids/b1", `{"price":"75.25"}`, "u2")
	c.SetParamNames("id")
	c.SetParamValues("b1")
	if err := h.Update(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if got.BidID != "b1" || got.RequesterID != "u2" {
		t.Fatalf("unexpected ids: %+v", got)
	}
	if got.Message != nil {
		t.Fatalf("message should be left untouched, got %q", *got.Message)
	}
	if got.Price == nil || *got.Price != "75.25" {
		t.Fatalf("expected price 75.25, got %v", got.Price)
	}
}

func TestBidHandler_Hire_Success(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	svc := &stubBidService{hireFn: func(_ context.Context, bidID, requesterID string) (*ports.HireResult, error) {
		if requesterID != "u1" {
			t.Fatalf("unexpected requester %s", requesterID)
		}
		return &ports.HireResult{
			Gig:          &domain.Gig{ID: "g1", Status: domain.GigAssigned, UpdatedAt: now},
			Bid:          &domain.Bid{ID: bidID, Status: domain.BidHired, UpdatedAt: now},
			RejectedBids: 2,
		}, nil
	}}
	h := NewBidHandler(svc)

	c, rec := newContext(http.MethodPatch, "/api/bids/b1/hire", "", "u1")
	c.SetParamNames("id")
	c.SetParamValues("b1")
	if err := h.Hire(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp hireResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Message != "Freelancer hired successfully" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
	if resp.Gig.Status != "assigned" || resp.Bid.Status != "hired" || resp.RejectedBids != 2 {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestBidHandler_Hire_InvalidStatePassesThrough(t *testing.T) {
	svc := &stubBidService{hireFn: func(context.Context, string, string) (*ports.HireResult, error) {
		return nil, domain.ErrInvalidState
	}}
	h := NewBidHandler(svc)

	c, _ := newContext(http.MethodPatch, "/api/bids/b1/hire", "", "u1")
	c.SetParamNames("id")
	c.SetParamValues("b1")
	if err := h.Hire(c); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected ErrInvalidState, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Health handler
// ---------------------------------------------------------------------------

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_Readiness(t *testing.T) {
	cases := []struct {
		name   string
		ping   error
		want   int
		status string
	}{
		{"store up", nil, http.StatusOK, "ok"},
		{"store down", errors.New("no primary"), http.StatusServiceUnavailable, "degraded"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandler(pingFunc(func(context.Context) error { return tc.ping }), nil)
			c, rec := newContext(http.MethodGet, "/health/ready", "", "")
			if err := h.Readiness(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, rec.Code)
			}

			var resp readinessResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Status != tc.status {
				t.Fatalf("expected status %s, got %s", tc.status, resp.Status)
			}
			if _, ok := resp.Dependencies["redis"]; ok {
				t.Fatalf("redis must be omitted when disabled")
			}
		})
	}
}
