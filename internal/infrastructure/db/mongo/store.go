package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readconcern"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/mongo/writeconcern"

	"github.com/gigflow/marketplace/internal/core/ports"
)

const (
	collectionGigs  = "gigs"
	collectionBids  = "bids"
	collectionUsers = "users"
)

// Store is the MongoDB-backed ports.Store. Transactions need a replica set or
// sharded cluster; a standalone mongod rejects them.
type Store struct {
	client *mongo.Client
	gigs   *mongo.Collection
	bids   *mongo.Collection
	users  *mongo.Collection
	now    func() time.Time
}

var _ ports.Store = (*Store)(nil)

// NewStore binds the store to the collections of db.
func NewStore(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client: client,
		gigs:   db.Collection(collectionGigs),
		bids:   db.Collection(collectionBids),
		users:  db.Collection(collectionUsers),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) Gigs() ports.GigRepository {
	return &GigRepository{col: s.gigs, now: s.now}
}

func (s *Store) Bids() ports.BidRepository {
	return &BidRepository{col: s.bids, now: s.now}
}

func (s *Store) Users() ports.UserRepository {
	return &UserRepository{col: s.users}
}

// Ping checks that the primary is reachable.
func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

type txView struct {
	gigs ports.GigRepository
	bids ports.BidRepository
}

func (v txView) Gigs() ports.GigRepository { return v.gigs }
func (v txView) Bids() ports.BidRepository { return v.bids }

// WithinTx runs fn in a multi-document transaction with snapshot reads and
// majority writes. The driver retries fn on transient errors, so fn must be
// safe to re-run; any error it returns aborts the transaction and is returned
// unchanged.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx ports.Tx) error) error {
	sess, err := s.client.StartSession()
	if err != nil {
		return fmt.Errorf("mongo start session: %w", err)
	}
	defer sess.EndSession(context.WithoutCancel(ctx))

	txOpts := options.Transaction().
		SetReadConcern(readconcern.Snapshot()).
		SetWriteConcern(writeconcern.Majority())

	view := txView{gigs: s.Gigs(), bids: s.Bids()}
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc, view)
	}, txOpts)
	return err
}
