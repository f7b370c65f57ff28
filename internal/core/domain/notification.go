package domain

import (
	"fmt"
	"time"
)

// EventHired is the event type pushed to a freelancer whose bid won.
const EventHired = "hired"

// Notification describes a side effect to deliver after a state change has
// been committed. It is data only; delivery happens elsewhere.
type Notification struct {
	RecipientID string    `json:"recipient_id"`
	Type        string    `json:"type"`
	Message     string    `json:"message"`
	GigID       string    `json:"gig_id"`
	BidID       string    `json:"bid_id"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewHiredNotification builds the event sent to the winning freelancer.
func NewHiredNotification(gig *Gig, bid *Bid, at time.Time) Notification {
	return Notification{
		RecipientID: bid.FreelancerID,
		Type:        EventHired,
		Message:     fmt.Sprintf("You have been hired for %q!", gig.Title),
		GigID:       gig.ID,
		BidID:       bid.ID,
		CreatedAt:   at,
	}
}
