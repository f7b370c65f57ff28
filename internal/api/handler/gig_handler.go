package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/gigflow/marketplace/internal/core/ports"
)

// GigHandler handles HTTP requests for gig operations.
type GigHandler struct {
	gigs ports.GigService
	bids ports.BidService
}

func NewGigHandler(gigs ports.GigService, bids ports.BidService) *GigHandler {
	return &GigHandler{gigs: gigs, bids: bids}
}

// Create handles POST /api/gigs.
//
// @Summary      Post a new gig
// @Tags         gigs
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createGigRequest  true  "Gig details"
// @Success      201   {object}  gigResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/gigs [post]
func (h *GigHandler) Create(c echo.Context) error {
	ownerID, err := requesterID(c)
	if err != nil {
		return err
	}

	var req createGigRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	gig, err := h.gigs.CreateGig(c.Request().Context(), ports.CreateGigInput{
		OwnerID:     ownerID,
		Title:       req.Title,
		Description: req.Description,
		Budget:      string(req.Budget),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toGigResponse(gig))
}

// ListOpen handles GET /api/gigs.
//
// @Summary      List open gigs, newest first
// @Tags         gigs
// @Produce      json
// @Success      200  {array}   gigResponse
// @Failure      503  {object}  errorResponse
// @Router       /api/gigs [get]
func (h *GigHandler) ListOpen(c echo.Context) error {
	views, err := h.gigs.ListOpenGigs(c.Request().Context())
	if err != nil {
		return err
	}
	out := make([]gigResponse, 0, len(views))
	for _, v := range views {
		out = append(out, toGigViewResponse(v))
	}
	return c.JSON(http.StatusOK, out)
}

// ListMine handles GET /api/gigs/my.
//
// @Summary      List the gigs posted by the caller
// @Tags         gigs
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   gigResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/gigs/my [get]
func (h *GigHandler) ListMine(c echo.Context) error {
	ownerID, err := requesterID(c)
	if err != nil {
		return err
	}
	gigs, err := h.gigs.ListMyGigs(c.Request().Context(), ownerID)
	if err != nil {
		return err
	}
	out := make([]gigResponse, 0, len(gigs))
	for _, g := range gigs {
		out = append(out, toGigResponse(g))
	}
	return c.JSON(http.StatusOK, out)
}

// Get handles GET /api/gigs/:id.
//
// @Summary      Get a gig by id
// @Tags         gigs
// @Produce      json
// @Param        id   path      string  true  "Gig id"
// @Success      200  {object}  gigResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/gigs/{id} [get]
func (h *GigHandler) Get(c echo.Context) error {
	view, err := h.gigs.GetGig(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toGigViewResponse(*view))
}

// Delete handles DELETE /api/gigs/:id.
//
// @Summary      Delete an open gig and its bids
// @Tags         gigs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Gig id"
// @Success      200  {object}  messageResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      409  {object}  errorResponse
// @Router       /api/gigs/{id} [delete]
func (h *GigHandler) Delete(c echo.Context) error {
	userID, err := requesterID(c)
	if err != nil {
		return err
	}
	if err := h.gigs.DeleteGig(c.Request().Context(), c.Param("id"), userID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "Gig deleted"})
}

// ListBids handles GET /api/gigs/:id/bids.
//
// @Summary      List the bids on a gig (owner only)
// @Tags         gigs
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Gig id"
// @Success      200  {array}   bidResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/gigs/{id}/bids [get]
func (h *GigHandler) ListBids(c echo.Context) error {
	userID, err := requesterID(c)
	if err != nil {
		return err
	}
	rows, err := h.bids.ListBidsForGig(c.Request().Context(), c.Param("id"), userID)
	if err != nil {
		return err
	}
	out := make([]bidResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, toBidWithFreelancerResponse(row))
	}
	return c.JSON(http.StatusOK, out)
}
