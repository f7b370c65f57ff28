package memory

import (
	"context"
	"fmt"

	"github.com/gigflow/marketplace/internal/core/domain"
)

type gigRepo struct {
	s  *Store
	tx *txn
}

func (r gigRepo) Create(_ context.Context, g *domain.Gig) error {
	var err error
	r.s.write(r.tx, func() {
		if _, exists := r.s.gigs[g.ID]; exists {
			err = fmt.Errorf("memory: gig %s already exists", g.ID)
			return
		}
		r.s.putGig(r.tx, cloneGig(g))
	})
	return err
}

func (r gigRepo) FindByID(_ context.Context, id string) (*domain.Gig, error) {
	var out *domain.Gig
	r.s.read(r.tx, func() {
		if g, ok := r.s.gigs[id]; ok {
			out = cloneGig(g)
		}
	})
	if out == nil {
		return nil, domain.ErrGigNotFound
	}
	return out, nil
}

func (r gigRepo) FindByIDs(_ context.Context, ids []string) (map[string]*domain.Gig, error) {
	out := make(map[string]*domain.Gig, len(ids))
	r.s.read(r.tx, func() {
		for _, id := range ids {
			if g, ok := r.s.gigs[id]; ok {
				out[id] = cloneGig(g)
			}
		}
	})
	return out, nil
}

func (r gigRepo) ListOpen(_ context.Context) ([]*domain.Gig, error) {
	return r.list(func(g *domain.Gig) bool { return g.Status == domain.GigOpen }), nil
}

func (r gigRepo) ListByOwner(_ context.Context, ownerID string) ([]*domain.Gig, error) {
	return r.list(func(g *domain.Gig) bool { return g.OwnerID == ownerID }), nil
}

func (r gigRepo) list(match func(*domain.Gig) bool) []*domain.Gig {
	out := []*domain.Gig{}
	r.s.read(r.tx, func() {
		for _, g := range r.s.gigs {
			if match(g) {
				out = append(out, cloneGig(g))
			}
		}
	})
	sortGigs(out)
	return out
}

func (r gigRepo) TransitionStatus(_ context.Context, id string, from, to domain.GigStatus) error {
	var err error
	r.s.write(r.tx, func() {
		g, ok := r.s.gigs[id]
		if !ok {
			err = domain.ErrGigNotFound
			return
		}
		if g.Status != from {
			err = fmt.Errorf("gig %s is %s, expected %s: %w", id, g.Status, from, domain.ErrInvalidState)
			return
		}
		next := cloneGig(g)
		next.Status = to
		next.UpdatedAt = r.s.now()
		r.s.putGig(r.tx, next)
	})
	return err
}

func (r gigRepo) DeleteOpen(_ context.Context, id string) error {
	var err error
	r.s.write(r.tx, func() {
		g, ok := r.s.gigs[id]
		if !ok {
			err = domain.ErrGigNotFound
			return
		}
		if g.Status != domain.GigOpen {
			err = fmt.Errorf("gig %s is %s: %w", id, g.Status, domain.ErrInvalidState)
			return
		}
		r.s.removeGig(r.tx, id)
	})
	return err
}

type bidRepo struct {
	s  *Store
	tx *txn
}

// Create rejects bids for unknown gigs.
func (r bidRepo) Create(_ context.Context, b *domain.Bid) error {
	var err error
	r.s.write(r.tx, func() {
		if _, ok := r.s.gigs[b.GigID]; !ok {
			err = fmt.Errorf("record bid for gig %s: %w", b.GigID, domain.ErrGigNotFound)
			return
		}
		if _, exists := r.s.bids[b.ID]; exists {
			err = fmt.Errorf("memory: bid %s already exists", b.ID)
			return
		}
		r.s.putBid(r.tx, cloneBid(b))
	})
	return err
}

func (r bidRepo) FindByID(_ context.Context, id string) (*domain.Bid, error) {
	var out *domain.Bid
	r.s.read(r.tx, func() {
		if b, ok := r.s.bids[id]; ok {
			out = cloneBid(b)
		}
	})
	if out == nil {
		return nil, domain.ErrBidNotFound
	}
	return out, nil
}

func (r bidRepo) ListByGig(_ context.Context, gigID string) ([]*domain.Bid, error) {
	return r.list(func(b *domain.Bid) bool { return b.GigID == gigID }), nil
}

func (r bidRepo) ListByFreelancer(_ context.Context, freelancerID string) ([]*domain.Bid, error) {
	return r.list(func(b *domain.Bid) bool { return b.FreelancerID == freelancerID }), nil
}

func (r bidRepo) list(match func(*domain.Bid) bool) []*domain.Bid {
	out := []*domain.Bid{}
	r.s.read(r.tx, func() {
		for _, b := range r.s.bids {
			if match(b) {
				out = append(out, cloneBid(b))
			}
		}
	})
	sortBids(out)
	return out
}

func (r bidRepo) UpdatePending(_ context.Context, b *domain.Bid) error {
	var err error
	r.s.write(r.tx, func() {
		cur, ok := r.s.bids[b.ID]
		if !ok {
			err = domain.ErrBidNotFound
			return
		}
		if cur.Status != domain.BidPending {
			err = fmt.Errorf("bid %s is %s: %w", b.ID, cur.Status, domain.ErrInvalidState)
			return
		}
		next := cloneBid(cur)
		next.Message = b.Message
		next.Price = b.Price
		next.UpdatedAt = b.UpdatedAt
		r.s.putBid(r.tx, next)
	})
	return err
}

func (r bidRepo) DeletePending(_ context.Context, id string) error {
	var err error
	r.s.write(r.tx, func() {
		cur, ok := r.s.bids[id]
		if !ok {
			err = domain.ErrBidNotFound
			return
		}
		if cur.Status != domain.BidPending {
			err = fmt.Errorf("bid %s is %s: %w", id, cur.Status, domain.ErrInvalidState)
			return
		}
		r.s.removeBid(r.tx, id)
	})
	return err
}

func (r bidRepo) TransitionStatus(_ context.Context, id string, from, to domain.BidStatus) error {
	var err error
	r.s.write(r.tx, func() {
		cur, ok := r.s.bids[id]
		if !ok {
			err = domain.ErrBidNotFound
			return
		}
		if cur.Status != from {
			err = fmt.Errorf("bid %s is %s, expected %s: %w", id, cur.Status, from, domain.ErrInvalidState)
			return
		}
		next := cloneBid(cur)
		next.Status = to
		next.UpdatedAt = r.s.now()
		r.s.putBid(r.tx, next)
	})
	return err
}

func (r bidRepo) RejectPendingExcept(_ context.Context, gigID, keepID string) (int64, error) {
	var n int64
	r.s.write(r.tx, func() {
		now := r.s.now()
		for id, b := range r.s.bids {
			if b.GigID != gigID || id == keepID || b.Status != domain.BidPending {
				continue
			}
			next := cloneBid(b)
			next.Status = domain.BidRejected
			next.UpdatedAt = now
			r.s.putBid(r.tx, next)
			n++
		}
	})
	return n, nil
}

func (r bidRepo) DeleteByGig(_ context.Context, gigID string) (int64, error) {
	var n int64
	r.s.write(r.tx, func() {
		for id, b := range r.s.bids {
			if b.GigID == gigID {
				r.s.removeBid(r.tx, id)
				n++
			}
		}
	})
	return n, nil
}

type userRepo struct {
	s *Store
}

func (r userRepo) FindByIDs(_ context.Context, ids []string) (map[string]*domain.User, error) {
	out := make(map[string]*domain.User, len(ids))
	r.s.read(nil, func() {
		for _, id := range ids {
			if u, ok := r.s.users[id]; ok {
				c := *u
				out[id] = &c
			}
		}
	})
	return out, nil
}
