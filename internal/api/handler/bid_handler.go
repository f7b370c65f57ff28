package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gigflow/marketplace/internal/core/ports"
)

// BidHandler handles HTTP requests for bid operations and hiring.
type BidHandler struct {
	service ports.BidService
}

func NewBidHandler(service ports.BidService) *BidHandler {
	return &BidHandler{service: service}
}

// Place handles POST /api/bids.
//
// @Summary      Place a bid on an open gig
// @Tags         bids
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      placeBidRequest  true  "Bid details"
// @Success      201   {object}  bidResponse
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/bids [post]
func (h *BidHandler) Place(c echo.Context) error {
	freelancerID, err := requesterID(c)
	if err != nil {
		return err
	}

	var req placeBidRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	bid, err := h.service.PlaceBid(c.Request().Context(), ports.PlaceBidInput{
		GigID:        req.GigID,
		FreelancerID: freelancerID,
		Message:      req.Message,
		Price:        string(req.Price),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toBidResponse(bid))
}

// ListMine handles GET /api/bids/my.
//
// @Summary      List the caller's bids with their gig
// @Tags         bids
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   bidResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/bids/my [get]
func (h *BidHandler) ListMine(c echo.Context) error {
	freelancerID, err := requesterID(c)
	if err != nil {
		return err
	}
	rows, err := h.service.ListMyBids(c.Request().Context(), freelancerID)
	if err != nil {
		return err
	}
	out := make([]bidResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toBidWithGigResponse(row))
	}
	return c.JSON(http.StatusOK, out)
}

// Update handles PATCH /api/bids/:id.
//
// @Summary      Edit a pending bid
// @Tags         bids
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string            true  "Bid id"
// @Param        body  body      updateBidRequest  true  "Fields to change"
// @Success      200   {object}  bidResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/bids/{id} [patch]
func (h *BidHandler) Update(c echo.Context) error {
	userID, err := requesterID(c)
	if err != nil {
		return err
	}

	var req updateBidRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	bid, err := h.service.UpdateBid(c.Request().Context(), toUpdateBidInput(c.Param("id"), userID, req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBidResponse(bid))
}

// Delete handles DELETE /api/bids/:id.
//
// @Summary      Withdraw a pending bid
// @Tags         bids
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Bid id"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /api/bids/{id} [delete]
func (h *BidHandler) Delete(c echo.Context) error {
	userID, err := requesterID(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteBid(c.Request().Context(), c.Param("id"), userID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Bid deleted"})
}

// Hire handles PATCH /api/bids/:id/hire.
//
// @Summary      Hire the freelancer behind a bid
// @Description  Assigns the gig, hires this bid and rejects every other pending bid in one transaction.
// @Tags         bids
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Bid id"
// @Success      200  {object}  hireResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Failure      503  {object}  errorResponse
// @Router       /api/bids/{id}/hire [patch]
func (h *BidHandler) Hire(c echo.Context) error {
	userID, err := requesterID(c)
	if err != nil {
		return err
	}

	result, err := h.service.Hire(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, hireResponse{
		Message:      "Freelancer hired successfully",
		Gig:          toGigResponse(result.Gig),
		Bid:          toBidResponse(result.Bid),
		RejectedBids: result.RejectedBids,
	})
}
