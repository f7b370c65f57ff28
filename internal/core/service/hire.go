package service

import (
	"context"
	"errors"
	"time"

	"github.com/gigflow/marketplace/internal/core/domain"
	"github.com/gigflow/marketplace/internal/core/ports"
	"github.com/gigflow/marketplace/internal/pkg/metrics"
)

// Hire accepts bidID on behalf of the gig owner. In a single transaction the
// gig moves open → assigned, the bid pending → hired, and every other pending
// bid of the gig is rejected. Either all three writes commit or none do.
//
// The open → assigned write is conditional on the gig still being open, so of
// several concurrent hires on one gig exactly one commits; the rest see
// domain.ErrInvalidState. The hire notification is emitted only after commit
// and never changes the result.
func (s *BidService) Hire(ctx context.Context, bidID, requesterID string) (*ports.HireResult, error) {
	start := time.Now()
	seenOpen := s.gigOpenBeforeHire(ctx, bidID)
	var (
		gig      *domain.Gig
		bid      *domain.Bid
		rejected int64
	)

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		var err error
		// 1. Load the bid and the gig it targets.
		if bid, err = tx.Bids().FindByID(ctx, bidID); err != nil {
			return err
		}
		if gig, err = tx.Gigs().FindByID(ctx, bid.GigID); err != nil {
			return err
		}

		// 2. Only the owner may hire, and only while the gig is open.
		if err := gig.AuthorizeOwner(requesterID); err != nil {
			return err
		}
		if err := gig.EnsureOpen(); err != nil {
			return err
		}

		// 3. Claim the gig. A concurrent winner makes this fail.
		if err := tx.Gigs().TransitionStatus(ctx, gig.ID, domain.GigOpen, domain.GigAssigned); err != nil {
			return err
		}

		// 4. Hire the target bid, then reject the rest.
		if err := tx.Bids().TransitionStatus(ctx, bid.ID, domain.BidPending, domain.BidHired); err != nil {
			return err
		}
		if rejected, err = tx.Bids().RejectPendingExcept(ctx, gig.ID, bid.ID); err != nil {
			return err
		}

		// 5. Read back what was written so the result carries the stored timestamps.
		if gig, err = tx.Gigs().FindByID(ctx, gig.ID); err != nil {
			return err
		}
		bid, err = tx.Bids().FindByID(ctx, bid.ID)
		return err
	})
	metrics.HireDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		result := errorKind(err)
		if errors.Is(err, domain.ErrInvalidState) && seenOpen {
			// The gig was open before this hire started but another hire committed first.
			result = "lost_race"
			s.logger.Info().Str("bid_id", bidID).Str("requester_id", requesterID).Msg("hire lost race")
		} else {
			s.logger.Warn().Err(err).Str("bid_id", bidID).Str("requester_id", requesterID).Msg("hire failed")
		}
		metrics.HiresTotal.WithLabelValues(result).Inc()
		return nil, storeFailure("hire", err)
	}

	metrics.HiresTotal.WithLabelValues("hired").Inc()
	s.logger.Info().
		Str("gig_id", gig.ID).
		Str("bid_id", bid.ID).
		Str("freelancer_id", bid.FreelancerID).
		Int64("rejected_bids", rejected).
		Msg("freelancer hired")

	n := domain.NewHiredNotification(gig, bid, bid.UpdatedAt)
	s.emit(n)

	return &ports.HireResult{Gig: gig, Bid: bid, RejectedBids: rejected, Notification: n}, nil
}

// gigOpenBeforeHire reports whether the bid's gig was open outside any
// transaction. Hire uses it to tell a lost race apart from a gig that was
// already assigned. Read errors count as false; the transaction reports them.
func (s *BidService) gigOpenBeforeHire(ctx context.Context, bidID string) bool {
	bid, err := s.store.Bids().FindByID(ctx, bidID)
	if err != nil {
		return false
	}
	gig, err := s.store.Gigs().FindByID(ctx, bid.GigID)
	if err != nil {
		return false
	}
	return gig.Status == domain.GigOpen
}

// emit hands the notification to the sink without blocking the caller.
func (s *BidService) emit(n domain.Notification) {
	if s.sink == nil {
		return
	}
	if !s.sink.Enqueue(n) {
		metrics.NotificationsTotal.WithLabelValues(string(ports.OutcomeDropped)).Inc()
		s.logger.Warn().Str("recipient_id", n.RecipientID).Str("gig_id", n.GigID).Msg("hire notification dropped")
	}
}
