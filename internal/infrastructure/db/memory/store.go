// Package memory is a concurrency-safe in-process implementation of the
// record store. Transactions are serialised on the store lock and journal an
// undo entry for every write, so an aborted scope leaves no trace.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gigflow/marketplace/internal/core/domain"
	"github.com/gigflow/marketplace/internal/core/ports"
)

// Store is an in-memory ports.Store.
type Store struct {
	mu    sync.RWMutex
	gigs  map[string]*domain.Gig
	bids  map[string]*domain.Bid
	users map[string]*domain.User
	now   func() time.Time
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		gigs:  make(map[string]*domain.Gig),
		bids:  make(map[string]*domain.Bid),
		users: make(map[string]*domain.User),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// txn journals the inverse of each write made inside WithinTx.
type txn struct {
	undo []func()
}

func (t *txn) record(fn func()) {
	if t != nil {
		t.undo = append(t.undo, fn)
	}
}

func (t *txn) rollback() {
	for i := len(t.undo) - 1; i >= 0; i-- {
		t.undo[i]()
	}
	t.undo = nil
}

type txView struct {
	gigs gigRepo
	bids bidRepo
}

func (v txView) Gigs() ports.GigRepository { return v.gigs }
func (v txView) Bids() ports.BidRepository { return v.bids }

func (s *Store) Gigs() ports.GigRepository   { return gigRepo{s: s} }
func (s *Store) Bids() ports.BidRepository   { return bidRepo{s: s} }
func (s *Store) Users() ports.UserRepository { return userRepo{s: s} }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// WithinTx holds the store lock for the whole scope. fn must only use the
// repositories reachable from tx; calling s.Gigs() or s.Bids() from inside
// fn would deadlock.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := &txn{}
	committed := false
	defer func() {
		if !committed {
			t.rollback()
		}
	}()

	if err := fn(ctx, txView{gigs: gigRepo{s: s, tx: t}, bids: bidRepo{s: s, tx: t}}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	committed = true
	return nil
}

// AddUser seeds a user record. The identity service owns users, so there is
// no write path for them through ports.Store.
func (s *Store) AddUser(u domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.ID] = &u
}

// read and write take the store lock unless a transaction already holds it.
func (s *Store) read(tx *txn, fn func()) {
	if tx == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
	}
	fn()
}

func (s *Store) write(tx *txn, fn func()) {
	if tx == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	fn()
}

func (s *Store) putGig(tx *txn, g *domain.Gig) {
	prev, existed := s.gigs[g.ID]
	s.gigs[g.ID] = g
	tx.record(func() {
		if existed {
			s.gigs[g.ID] = prev
		} else {
			delete(s.gigs, g.ID)
		}
	})
}

func (s *Store) removeGig(tx *txn, id string) {
	prev, existed := s.gigs[id]
	if !existed {
		return
	}
	delete(s.gigs, id)
	tx.record(func() { s.gigs[id] = prev })
}

func (s *Store) putBid(tx *txn, b *domain.Bid) {
	prev, existed := s.bids[b.ID]
	s.bids[b.ID] = b
	tx.record(func() {
		if existed {
			s.bids[b.ID] = prev
		} else {
			delete(s.bids, b.ID)
		}
	})
}

func (s *Store) removeBid(tx *txn, id string) {
	prev, existed := s.bids[id]
	if !existed {
		return
	}
	delete(s.bids, id)
	tx.record(func() { s.bids[id] = prev })
}

func cloneGig(g *domain.Gig) *domain.Gig {
	c := *g
	return &c
}

func cloneBid(b *domain.Bid) *domain.Bid {
	c := *b
	return &c
}

// newestFirst orders by creation time descending, then id for stability.
func newestFirst[T any](items []T, createdAt func(T) time.Time, id func(T) string) {
	sort.Slice(items, func(i, j int) bool {
		ti, tj := createdAt(items[i]), createdAt(items[j])
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return id(items[i]) > id(items[j])
	})
}

func sortGigs(gigs []*domain.Gig) {
	newestFirst(gigs,
		func(g *domain.Gig) time.Time { return g.CreatedAt },
		func(g *domain.Gig) string { return g.ID })
}

func sortBids(bids []*domain.Bid) {
	newestFirst(bids,
		func(b *domain.Bid) time.Time { return b.CreatedAt },
		func(b *domain.Bid) string { return b.ID })
}
