package handler

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// amount accepts a JSON number or a numeric string and keeps the literal as
// written, so the validation filter parses it exactly once.
type amount string

func (a *amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return errors.New("amount must be a number")
	}
	*a = amount(n.String())
	return nil
}

// --- Request types ---

type createGigRequest struct {
	Title       string `json:"title"       validate:"required"`
	Description string `json:"description" validate:"required"`
	Budget      amount `json:"budget"      validate:"required" swaggertype:"number"`
}

type placeBidRequest struct {
	GigID   string `json:"gig_id"  validate:"required"`
	Message string `json:"message" validate:"required"`
	Price   amount `json:"price"   validate:"required" swaggertype:"number"`
}

type updateBidRequest struct {
	Message *string `json:"message,omitempty"`
	Price   *amount `json:"price,omitempty" swaggertype:"number"`
}

// --- Response types ---

type userResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type gigResponse struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Budget      decimal.Decimal `json:"budget" swaggertype:"string"`
	Status      string          `json:"status"`
	OwnerID     string          `json:"owner_id"`
	Owner       *userResponse   `json:"owner,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

type gigSummaryResponse struct {
	ID      string          `json:"id"`
	Title   string          `json:"title"`
	Budget  decimal.Decimal `json:"budget" swaggertype:"string"`
	Status  string          `json:"status"`
	OwnerID string          `json:"owner_id"`
}

type bidResponse struct {
	ID           string              `json:"id"`
	GigID        string              `json:"gig_id"`
	FreelancerID string              `json:"freelancer_id"`
	Freelancer   *userResponse       `json:"freelancer,omitempty"`
	Gig          *gigSummaryResponse `json:"gig,omitempty"`
	Message      string              `json:"message"`
	Price        decimal.Decimal     `json:"price" swaggertype:"string"`
	Status       string              `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type hireResponse struct {
	Message      string      `json:"message"`
	Gig          gigResponse `json:"gig"`
	Bid          bidResponse `json:"bid"`
	RejectedBids int64       `json:"rejected_bids"`
}
