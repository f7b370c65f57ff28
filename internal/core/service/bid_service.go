package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gigflow/marketplace/internal/core/domain"
	"github.com/gigflow/marketplace/internal/core/ports"
	"github.com/gigflow/marketplace/internal/pkg/metrics"
)

var _ ports.BidService = (*BidService)(nil)

// BidService implements bidding and the hire transaction.
type BidService struct {
	store  ports.Store
	sink   ports.NotificationSink
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

// NewBidService wires the bid use cases. sink receives the hire notification
// after commit; it may be nil, in which case nothing is emitted.
func NewBidService(store ports.Store, sink ports.NotificationSink, logger zerolog.Logger) *BidService {
	return &BidService{
		store:  store,
		sink:   sink,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// PlaceBid records a pending bid on an open gig. The gig check and the insert
// share a transaction so a bid can never land on a gig that was just assigned.
func (s *BidService) PlaceBid(ctx context.Context, input ports.PlaceBidInput) (*domain.Bid, error) {
	if err := domain.ValidateMessage(input.Message); err != nil {
		return nil, err
	}
	price, err := domain.ValidatePrice(input.Price)
	if err != nil {
		return nil, err
	}

	now := s.now()
	bid := &domain.Bid{
		ID:           s.newID(),
		GigID:        input.GigID,
		FreelancerID: input.FreelancerID,
		Message:      strings.TrimSpace(input.Message),
		Price:        price,
		Status:       domain.BidPending,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err = s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		gig, err := tx.Gigs().FindByID(ctx, input.GigID)
		if err != nil {
			return err
		}
		if err := gig.CanAcceptBidFrom(input.FreelancerID); err != nil {
			return err
		}
		return tx.Bids().Create(ctx, bid)
	})
	if err != nil {
		recordBidOp("place", err)
		s.logger.Warn().Err(err).Str("gig_id", input.GigID).Str("freelancer_id", input.FreelancerID).Msg("place bid failed")
		return nil, storeFailure("place bid", err)
	}

	recordBidOp("place", nil)
	s.logger.Info().Str("bid_id", bid.ID).Str("gig_id", bid.GigID).Str("freelancer_id", bid.FreelancerID).Msg("bid placed")
	return bid, nil
}

// ListBidsForGig returns a gig's bids to its owner, newest first.
func (s *BidService) ListBidsForGig(ctx context.Context, gigID, requesterID string) ([]ports.BidWithFreelancer, error) {
	gig, err := s.store.Gigs().FindByID(ctx, gigID)
	if err != nil {
		return nil, storeFailure("list bids", err)
	}
	if err := gig.AuthorizeOwner(requesterID); err != nil {
		return nil, err
	}

	bids, err := s.store.Bids().ListByGig(ctx, gigID)
	if err != nil {
		return nil, storeFailure("list bids", err)
	}

	freelancerIDs := make([]string, 0, len(bids))
	for _, b := range bids {
		freelancerIDs = append(freelancerIDs, b.FreelancerID)
	}
	users, err := s.store.Users().FindByIDs(ctx, uniq(freelancerIDs))
	if err != nil {
		return nil, storeFailure("list bid freelancers", err)
	}

	out := make([]ports.BidWithFreelancer, 0, len(bids))
	for _, b := range bids {
		out = append(out, ports.BidWithFreelancer{Bid: b, Freelancer: users[b.FreelancerID].Summary(b.FreelancerID)})
	}
	return out, nil
}

// ListMyBids returns the freelancer's bids, newest first, each with a summary
// of the gig it targets.
func (s *BidService) ListMyBids(ctx context.Context, freelancerID string) ([]ports.BidWithGig, error) {
	bids, err := s.store.Bids().ListByFreelancer(ctx, freelancerID)
	if err != nil {
		return nil, storeFailure("list my bids", err)
	}

	gigIDs := make([]string, 0, len(bids))
	for _, b := range bids {
		gigIDs = append(gigIDs, b.GigID)
	}
	gigs, err := s.store.Gigs().FindByIDs(ctx, uniq(gigIDs))
	if err != nil {
		return nil, storeFailure("list my bid gigs", err)
	}

	out := make([]ports.BidWithGig, 0, len(bids))
	for _, b := range bids {
		row := ports.BidWithGig{Bid: b}
		if g, ok := gigs[b.GigID]; ok {
			row.Gig = &ports.GigSummary{
				ID:      g.ID,
				Title:   g.Title,
				Budget:  g.Budget,
				Status:  g.Status,
				OwnerID: g.OwnerID,
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// UpdateBid edits the message and/or price of a pending bid owned by the
// requester. The write only applies while the stored bid is still pending.
func (s *BidService) UpdateBid(ctx context.Context, input ports.UpdateBidInput) (*domain.Bid, error) {
	patch, err := buildPatch(input)
	if err != nil {
		return nil, err
	}

	bid, err := s.store.Bids().FindByID(ctx, input.BidID)
	if err != nil {
		recordBidOp("update", err)
		return nil, storeFailure("update bid", err)
	}
	if err := bid.EnsureMutableBy(input.RequesterID); err != nil {
		recordBidOp("update", err)
		return nil, err
	}

	patch.Apply(bid, s.now())
	if err := s.store.Bids().UpdatePending(ctx, bid); err != nil {
		recordBidOp("update", err)
		s.logger.Warn().Err(err).Str("bid_id", bid.ID).Msg("update bid failed")
		return nil, storeFailure("update bid", err)
	}

	recordBidOp("update", nil)
	s.logger.Info().Str("bid_id", bid.ID).Msg("bid updated")
	return bid, nil
}

// DeleteBid withdraws a pending bid owned by the requester.
func (s *BidService) DeleteBid(ctx context.Context, bidID, requesterID string) error {
	bid, err := s.store.Bids().FindByID(ctx, bidID)
	if err != nil {
		recordBidOp("delete", err)
		return storeFailure("delete bid", err)
	}
	if err := bid.EnsureMutableBy(requesterID); err != nil {
		recordBidOp("delete", err)
		return err
	}
	if err := s.store.Bids().DeletePending(ctx, bidID); err != nil {
		recordBidOp("delete", err)
		s.logger.Warn().Err(err).Str("bid_id", bidID).Msg("delete bid failed")
		return storeFailure("delete bid", err)
	}

	recordBidOp("delete", nil)
	s.logger.Info().Str("bid_id", bidID).Msg("bid deleted")
	return nil
}

// buildPatch validates the supplied fields of an update. At least one field
// must be present.
func buildPatch(input ports.UpdateBidInput) (domain.BidPatch, error) {
	var patch domain.BidPatch
	if input.Message != nil {
		if err := domain.ValidateMessage(*input.Message); err != nil {
			return patch, err
		}
		msg := strings.TrimSpace(*input.Message)
		patch.Message = &msg
	}
	if input.Price != nil {
		price, err := domain.ValidatePrice(*input.Price)
		if err != nil {
			return patch, err
		}
		patch.Price = &price
	}
	if patch.IsEmpty() {
		return patch, &domain.ValidationError{Field: "bid", Reason: "message or price is required"}
	}
	return patch, nil
}

func recordBidOp(op string, err error) {
	metrics.BidOperationsTotal.WithLabelValues(op, errorKind(err)).Inc()
}

// errorKind labels an error by its taxonomy class for metrics.
func errorKind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "validation"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return "forbidden"
	case errors.Is(err, domain.ErrInvalidState):
		return "invalid_state"
	default:
		return "transaction_failure"
	}
}
