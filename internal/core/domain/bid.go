package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// BidStatus represents the lifecycle state of a bid.
type BidStatus string

const (
	BidPending  BidStatus = "pending"
	BidHired    BidStatus = "hired"
	BidRejected BidStatus = "rejected"
)

// bidTransitions defines the allowed bid state machine transitions.
// hired and rejected are terminal.
var bidTransitions = map[BidStatus][]BidStatus{
	BidPending: {BidHired, BidRejected},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s BidStatus) CanTransitionTo(next BidStatus) bool {
	for _, allowed := range bidTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is possible.
func (s BidStatus) IsTerminal() bool {
	return len(bidTransitions[s]) == 0
}

// Bid is a freelancer's offer against a specific gig.
type Bid struct {
	ID           string          `json:"id"`
	GigID        string          `json:"gig_id"`
	FreelancerID string          `json:"freelancer_id"`
	Message      string          `json:"message"`
	Price        decimal.Decimal `json:"price"`
	Status       BidStatus       `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// EnsureMutableBy checks that requesterID placed the bid and that no decision
// has been taken on it yet. Used for both edits and deletion.
func (b *Bid) EnsureMutableBy(requesterID string) error {
	if requesterID == "" || b.FreelancerID != requesterID {
		return fmt.Errorf("bid %s: %w: requester is not the bid owner", b.ID, ErrForbidden)
	}
	if b.Status != BidPending {
		return fmt.Errorf("bid %s is %s: %w: cannot edit or delete after decision", b.ID, b.Status, ErrInvalidState)
	}
	return nil
}

// BidPatch carries the optional fields of a bid update. Nil means unchanged.
type BidPatch struct {
	Message *string
	Price   *decimal.Decimal
}

// IsEmpty reports whether the patch changes nothing.
func (p BidPatch) IsEmpty() bool {
	return p.Message == nil && p.Price == nil
}

// Apply writes the patch onto the bid and stamps UpdatedAt.
func (p BidPatch) Apply(b *Bid, now time.Time) {
	if p.Message != nil {
		b.Message = *p.Message
	}
	if p.Price != nil {
		b.Price = *p.Price
	}
	b.UpdatedAt = now
}
