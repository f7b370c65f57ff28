package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gigflow/marketplace/internal/core/domain"
)

type bidDocument struct {
	ID           string               `bson:"_id"`
	GigID        string               `bson:"gig_id"`
	FreelancerID string               `bson:"freelancer_id"`
	Message      string               `bson:"message"`
	Price        primitive.Decimal128 `bson:"price"`
	Status       string               `bson:"status"`
	CreatedAt    time.Time            `bson:"created_at"`
	UpdatedAt    time.Time            `bson:"updated_at"`
}

func newBidDocument(b *domain.Bid) (bidDocument, error) {
	price, err := toDecimal128(b.Price)
	if err != nil {
		return bidDocument{}, fmt.Errorf("bid %s price: %w", b.ID, err)
	}
	return bidDocument{
		ID:           b.ID,
		GigID:        b.GigID,
		FreelancerID: b.FreelancerID,
		Message:      b.Message,
		Price:        price,
		Status:       string(b.Status),
		CreatedAt:    b.CreatedAt,
		UpdatedAt:    b.UpdatedAt,
	}, nil
}

func (d bidDocument) toDomain() (*domain.Bid, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return nil, fmt.Errorf("bid %s price: %w", d.ID, err)
	}
	return &domain.Bid{
		ID:           d.ID,
		GigID:        d.GigID,
		FreelancerID: d.FreelancerID,
		Message:      d.Message,
		Price:        price,
		Status:       domain.BidStatus(d.Status),
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

// BidRepository persists bids in the "bids" collection. Every state-changing
// write is filtered on the status it expects to find.
type BidRepository struct {
	col *mongo.Collection
	now func() time.Time
}

// Create inserts a new bid document.
func (r *BidRepository) Create(ctx context.Context, b *domain.Bid) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := newBidDocument(b)
	if err != nil {
		return err
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert bid: %w", err)
	}
	return nil
}

// FindByID retrieves a bid by id.
func (r *BidRepository) FindByID(ctx context.Context, id string) (*domain.Bid, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc bidDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrBidNotFound
		}
		return nil, fmt.Errorf("find bid: %w", err)
	}
	return doc.toDomain()
}

// ListByGig returns the bids of a gig, newest first.
func (r *BidRepository) ListByGig(ctx context.Context, gigID string) ([]*domain.Bid, error) {
	return r.find(ctx, bson.M{"gig_id": gigID})
}

// ListByFreelancer returns the bids placed by freelancerID, newest first.
func (r *BidRepository) ListByFreelancer(ctx context.Context, freelancerID string) ([]*domain.Bid, error) {
	return r.find(ctx, bson.M{"freelancer_id": freelancerID})
}

func (r *BidRepository) find(ctx context.Context, filter bson.M) ([]*domain.Bid, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("find bids: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []bidDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode bids: %w", err)
	}

	bids := make([]*domain.Bid, 0, len(docs))
	for _, d := range docs {
		b, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		bids = append(bids, b)
	}
	return bids, nil
}

// UpdatePending writes message, price and updated_at while the bid is pending.
func (r *BidRepository) UpdatePending(ctx context.Context, b *domain.Bid) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	price, err := toDecimal128(b.Price)
	if err != nil {
		return err
	}
	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": b.ID, "status": string(domain.BidPending)},
		bson.M{"$set": bson.M{"message": b.Message, "price": price, "updated_at": b.UpdatedAt}},
	)
	if err != nil {
		return fmt.Errorf("update bid: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missOrConflict(ctx, b.ID, fmt.Sprintf("bid %s is no longer pending", b.ID))
	}
	return nil
}

// DeletePending removes the bid while it is pending.
func (r *BidRepository) DeletePending(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "status": string(domain.BidPending)})
	if err != nil {
		return fmt.Errorf("delete bid: %w", err)
	}
	if res.DeletedCount == 0 {
		return r.missOrConflict(ctx, id, fmt.Sprintf("bid %s is no longer pending", id))
	}
	return nil
}

// TransitionStatus is a compare-and-set on the status field.
func (r *BidRepository) TransitionStatus(ctx context.Context, id string, from, to domain.BidStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "updated_at": r.now()}},
	)
	if err != nil {
		return fmt.Errorf("update bid status: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missOrConflict(ctx, id, fmt.Sprintf("bid %s is no longer %s", id, from))
	}
	return nil
}

// RejectPendingExcept rejects every other pending bid of the gig.
func (r *BidRepository) RejectPendingExcept(ctx context.Context, gigID, keepID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateMany(ctx,
		bson.M{"gig_id": gigID, "_id": bson.M{"$ne": keepID}, "status": string(domain.BidPending)},
		bson.M{"$set": bson.M{"status": string(domain.BidRejected), "updated_at": r.now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("reject bids: %w", err)
	}
	return res.ModifiedCount, nil
}

// DeleteByGig removes every bid of the gig.
func (r *BidRepository) DeleteByGig(ctx context.Context, gigID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"gig_id": gigID})
	if err != nil {
		return 0, fmt.Errorf("delete gig bids: %w", err)
	}
	return res.DeletedCount, nil
}

func (r *BidRepository) missOrConflict(ctx context.Context, id, conflict string) error {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("count bid: %w", err)
	}
	if n == 0 {
		return domain.ErrBidNotFound
	}
	return fmt.Errorf("%s: %w", conflict, domain.ErrInvalidState)
}

// EnsureIndexes creates the listing indexes and a partial unique index that
// allows at most one hired bid per gig.
func (r *BidRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "gig_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "freelancer_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{
			Keys: bson.D{{Key: "gig_id", Value: 1}},
			Options: options.Index().
				SetName("one_hired_bid_per_gig").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": string(domain.BidHired)}),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
