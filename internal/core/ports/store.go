package ports

import (
	"context"

	"github.com/gigflow/marketplace/internal/core/domain"
)

// GigRepository defines persistence operations for gigs.
type GigRepository interface {
	Create(ctx context.Context, g *domain.Gig) error
	// FindByID returns domain.ErrGigNotFound when no gig matches.
	FindByID(ctx context.Context, id string) (*domain.Gig, error)
	// FindByIDs returns the gigs that exist among ids, keyed by id.
	FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Gig, error)
	// ListOpen returns open gigs, newest first.
	ListOpen(ctx context.Context) ([]*domain.Gig, error)
	// ListByOwner returns every gig created by ownerID, newest first.
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Gig, error)
	// TransitionStatus moves the gig from one status to another only if it is
	// still in from. A mismatch yields domain.ErrInvalidState.
	TransitionStatus(ctx context.Context, id string, from, to domain.GigStatus) error
	// DeleteOpen removes the gig only while it is open.
	DeleteOpen(ctx context.Context, id string) error
}

// BidRepository defines persistence operations for bids.
type BidRepository interface {
	Create(ctx context.Context, b *domain.Bid) error
	// FindByID returns domain.ErrBidNotFound when no bid matches.
	FindByID(ctx context.Context, id string) (*domain.Bid, error)
	// ListByGig returns the bids of a gig, newest first.
	ListByGig(ctx context.Context, gigID string) ([]*domain.Bid, error)
	// ListByFreelancer returns the bids placed by freelancerID, newest first.
	ListByFreelancer(ctx context.Context, freelancerID string) ([]*domain.Bid, error)
	// UpdatePending persists message, price and updated_at only while the
	// stored bid is still pending.
	UpdatePending(ctx context.Context, b *domain.Bid) error
	// DeletePending removes the bid only while it is pending.
	DeletePending(ctx context.Context, id string) error
	// TransitionStatus moves the bid from one status to another only if it is
	// still in from. A mismatch yields domain.ErrInvalidState.
	TransitionStatus(ctx context.Context, id string, from, to domain.BidStatus) error
	// RejectPendingExcept marks every pending bid of gigID other than keepID
	// as rejected and returns how many were changed.
	RejectPendingExcept(ctx context.Context, gigID, keepID string) (int64, error)
	// DeleteByGig removes all bids of a gig and returns how many were removed.
	DeleteByGig(ctx context.Context, gigID string) (int64, error)
}

// Tx is the view of the record store available inside a transaction scope.
type Tx interface {
	Gigs() GigRepository
	Bids() BidRepository
}

// Store is the transactional record store for gigs and bids.
type Store interface {
	Tx
	Users() UserRepository
	// WithinTx runs fn in a single all-or-nothing transaction. The transaction
	// commits when fn returns nil and aborts on any error or panic; no write
	// made through tx is observable unless the commit succeeds. Repository
	// calls inside fn must use the ctx passed to fn.
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	// Ping reports whether the backing store is reachable.
	Ping(ctx context.Context) error
}
