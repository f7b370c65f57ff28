package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// GigStatus represents the lifecycle state of a gig.
type GigStatus string

const (
	GigOpen     GigStatus = "open"
	GigAssigned GigStatus = "assigned"
)

// gigTransitions defines the allowed gig state machine transitions.
// assigned is terminal; deletion is modelled separately (open only).
var gigTransitions = map[GigStatus][]GigStatus{
	GigOpen: {GigAssigned},
}

// CanTransitionTo reports whether a transition from current status to next is valid.
func (s GigStatus) CanTransitionTo(next GigStatus) bool {
	for _, allowed := range gigTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Gig is a posted work item open for competing bids.
type Gig struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Budget      decimal.Decimal `json:"budget"`
	OwnerID     string          `json:"owner_id"`
	Status      GigStatus       `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// IsOwnedBy reports whether userID created the gig.
func (g *Gig) IsOwnedBy(userID string) bool {
	return userID != "" && g.OwnerID == userID
}

// AuthorizeOwner fails with ErrForbidden unless userID owns the gig.
func (g *Gig) AuthorizeOwner(userID string) error {
	if !g.IsOwnedBy(userID) {
		return fmt.Errorf("gig %s: %w: requester is not the owner", g.ID, ErrForbidden)
	}
	return nil
}

// EnsureOpen fails with ErrInvalidState once the gig has left the open state.
func (g *Gig) EnsureOpen() error {
	if g.Status != GigOpen {
		return fmt.Errorf("gig %s is %s: %w", g.ID, g.Status, ErrInvalidState)
	}
	return nil
}

// CanAcceptBidFrom checks the bidding preconditions for freelancerID.
func (g *Gig) CanAcceptBidFrom(freelancerID string) error {
	if err := g.EnsureOpen(); err != nil {
		return err
	}
	if g.IsOwnedBy(freelancerID) {
		return fmt.Errorf("gig %s: %w: owners cannot bid on their own gig", g.ID, ErrForbidden)
	}
	return nil
}

// CanBeDeletedBy checks that userID owns the gig and that it is still open.
func (g *Gig) CanBeDeletedBy(userID string) error {
	if err := g.AuthorizeOwner(userID); err != nil {
		return err
	}
	if g.Status != GigOpen {
		return fmt.Errorf("gig %s: %w: cannot delete an assigned gig", g.ID, ErrInvalidState)
	}
	return nil
}
