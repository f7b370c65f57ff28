package ports

import (
	"context"

	"github.com/gigflow/marketplace/internal/core/domain"
)

// CreateGigInput carries the raw fields of a new gig. Budget stays a string
// until the validation filter has parsed it.
type CreateGigInput struct {
	OwnerID     string
	Title       string
	Description string
	Budget      string
}

// GigView is a gig with its owner's display fields resolved.
type GigView struct {
	Gig   *domain.Gig
	Owner domain.UserSummary
}

// GigService defines use-case operations for gigs.
type GigService interface {
	CreateGig(ctx context.Context, input CreateGigInput) (*domain.Gig, error)
	GetGig(ctx context.Context, gigID string) (*GigView, error)
	ListOpenGigs(ctx context.Context) ([]GigView, error)
	ListMyGigs(ctx context.Context, ownerID string) ([]*domain.Gig, error)
	DeleteGig(ctx context.Context, gigID, requesterID string) error
}
