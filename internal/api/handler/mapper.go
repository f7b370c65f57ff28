package handler

import (
	"github.com/gigflow/marketplace/internal/core/domain"
	"github.com/gigflow/marketplace/internal/core/ports"
)

// --- Domain → Response ---

func toUserResponse(u domain.UserSummary) *userResponse {
	return &userResponse{ID: u.ID, Name: u.Name, Email: u.Email}
}

func toGigResponse(g *domain.Gig) gigResponse {
	return gigResponse{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		Budget:      g.Budget,
		Status:      string(g.Status),
		OwnerID:     g.OwnerID,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}
}

func toGigViewResponse(v ports.GigView) gigResponse {
	resp := toGigResponse(v.Gig)
	resp.Owner = toUserResponse(v.Owner)
	return resp
}

func toBidResponse(b *domain.Bid) bidResponse {
	return bidResponse{
		ID:           b.ID,
		GigID:        b.GigID,
		FreelancerID: b.FreelancerID,
		Message:      b.Message,
		Price:        b.Price,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}
}

func toBidWithFreelancerResponse(row ports.BidWithFreelancer) bidResponse {
	resp := toBidResponse(row.Bid)
	resp.Freelancer = toUserResponse(row.Freelancer)
	return resp
}

func toBidWithGigResponse(row ports.BidWithGig) bidResponse {
	resp := toBidResponse(row.Bid)
	if row.Gig != nil {
		resp.Gig = &gigSummaryResponse{
			ID:      row.Gig.ID,
			Title:   row.Gig.Title,
			Budget:  row.Gig.Budget,
			Status:  string(row.Gig.Status),
			OwnerID: row.Gig.OwnerID,
		}
	}
	return resp
}

// --- Request → Service input ---

func toUpdateBidInput(bidID, requesterID string, req updateBidRequest) ports.UpdateBidInput {
	in := ports.UpdateBidInput{BidID: bidID, RequesterID: requesterID, Message: req.Message}
	if req.Price != nil {
		p := string(*req.Price)
		in.Price = &p
	}
	return in
}
