package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/gigflow/marketplace/internal/core/domain"
)

// PlaceBidInput carries all data needed to place a bid.
type PlaceBidInput struct {
	GigID        string
	FreelancerID string
	Message      string
	Price        string
}

// UpdateBidInput carries an edit to a pending bid. Nil fields are left as is.
type UpdateBidInput struct {
	BidID       string
	RequesterID string
	Message     *string
	Price       *string
}

// GigSummary is the lightweight gig view attached to a freelancer's bids.
type GigSummary struct {
	ID      string
	Title   string
	Budget  decimal.Decimal
	Status  domain.GigStatus
	OwnerID string
}

// BidWithFreelancer is a bid row shown to the gig owner.
type BidWithFreelancer struct {
	Bid        *domain.Bid
	Freelancer domain.UserSummary
}

// BidWithGig is a bid row shown to the freelancer who placed it. Gig is nil
// when the gig has since been removed.
type BidWithGig struct {
	Bid *domain.Bid
	Gig *GigSummary
}

// HireResult is returned by a committed hire. Notification describes the
// side effect that is delivered after the transaction; its outcome is not
// part of the result.
type HireResult struct {
	Gig          *domain.Gig
	Bid          *domain.Bid
	RejectedBids int64
	Notification domain.Notification
}

// BidService defines use-case operations for bids and the hire transaction.
type BidService interface {
	PlaceBid(ctx context.Context, input PlaceBidInput) (*domain.Bid, error)
	ListBidsForGig(ctx context.Context, gigID, requesterID string) ([]BidWithFreelancer, error)
	ListMyBids(ctx context.Context, freelancerID string) ([]BidWithGig, error)
	UpdateBid(ctx context.Context, input UpdateBidInput) (*domain.Bid, error)
	DeleteBid(ctx context.Context, bidID, requesterID string) error
	Hire(ctx context.Context, bidID, requesterID string) (*HireResult, error)
}
