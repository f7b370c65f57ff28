package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gigflow/marketplace/internal/core/domain"
	"github.com/gigflow/marketplace/internal/core/ports"
	"github.com/gigflow/marketplace/internal/pkg/metrics"
)

var _ ports.GigService = (*GigService)(nil)

// GigService implements gig creation, browsing and deletion.
type GigService struct {
	store  ports.Store
	logger zerolog.Logger
	now    func() time.Time
	newID  func() string
}

func NewGigService(store ports.Store, logger zerolog.Logger) *GigService {
	return &GigService{
		store:  store,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
	}
}

// CreateGig validates the input and stores a new open gig owned by the caller.
func (s *GigService) CreateGig(ctx context.Context, input ports.CreateGigInput) (*domain.Gig, error) {
	if err := domain.ValidateTitle(input.Title); err != nil {
		return nil, err
	}
	if err := domain.ValidateDescription(input.Description); err != nil {
		return nil, err
	}
	budget, err := domain.ValidateBudget(input.Budget)
	if err != nil {
		return nil, err
	}

	now := s.now()
	gig := &domain.Gig{
		ID:          s.newID(),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Budget:      budget,
		OwnerID:     input.OwnerID,
		Status:      domain.GigOpen,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Gigs().Create(ctx, gig); err != nil {
		s.logger.Error().Err(err).Str("owner_id", input.OwnerID).Msg("failed to create gig")
		return nil, storeFailure("create gig", err)
	}

	metrics.GigsCreatedTotal.Inc()
	s.logger.Info().Str("gig_id", gig.ID).Str("owner_id", gig.OwnerID).Msg("gig created")
	return gig, nil
}

// GetGig returns a single gig with its owner resolved.
func (s *GigService) GetGig(ctx context.Context, gigID string) (*ports.GigView, error) {
	gig, err := s.store.Gigs().FindByID(ctx, gigID)
	if err != nil {
		return nil, storeFailure("get gig", err)
	}
	users, err := s.store.Users().FindByIDs(ctx, []string{gig.OwnerID})
	if err != nil {
		return nil, storeFailure("get gig owner", err)
	}
	return &ports.GigView{Gig: gig, Owner: users[gig.OwnerID].Summary(gig.OwnerID)}, nil
}

// ListOpenGigs returns every open gig, newest first, with owners resolved.
func (s *GigService) ListOpenGigs(ctx context.Context) ([]ports.GigView, error) {
	gigs, err := s.store.Gigs().ListOpen(ctx)
	if err != nil {
		return nil, storeFailure("list open gigs", err)
	}

	ownerIDs := make([]string, 0, len(gigs))
	for _, g := range gigs {
		ownerIDs = append(ownerIDs, g.OwnerID)
	}
	users, err := s.store.Users().FindByIDs(ctx, uniq(ownerIDs))
	if err != nil {
		return nil, storeFailure("list gig owners", err)
	}

	views := make([]ports.GigView, 0, len(gigs))
	for _, g := range gigs {
		views = append(views, ports.GigView{Gig: g, Owner: users[g.OwnerID].Summary(g.OwnerID)})
	}
	return views, nil
}

// ListMyGigs returns all gigs created by ownerID regardless of status.
func (s *GigService) ListMyGigs(ctx context.Context, ownerID string) ([]*domain.Gig, error) {
	gigs, err := s.store.Gigs().ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, storeFailure("list my gigs", err)
	}
	return gigs, nil
}

// DeleteGig removes an open gig and its bids in one transaction.
func (s *GigService) DeleteGig(ctx context.Context, gigID, requesterID string) error {
	var removedBids int64
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx ports.Tx) error {
		gig, err := tx.Gigs().FindByID(ctx, gigID)
		if err != nil {
			return err
		}
		if err := gig.CanBeDeletedBy(requesterID); err != nil {
			return err
		}
		if removedBids, err = tx.Bids().DeleteByGig(ctx, gigID); err != nil {
			return err
		}
		return tx.Gigs().DeleteOpen(ctx, gigID)
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("gig_id", gigID).Str("requester_id", requesterID).Msg("delete gig failed")
		return storeFailure("delete gig", err)
	}

	s.logger.Info().Str("gig_id", gigID).Int64("bids_removed", removedBids).Msg("gig deleted")
	return nil
}

// storeFailure passes taxonomy errors through and classifies anything else
// raised by the record store as a transaction failure.
func storeFailure(op string, err error) error {
	if domain.IsDomainError(err) {
		return err
	}
	return fmt.Errorf("%s: %w: %w", op, domain.ErrTransactionFailure, err)
}

func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
