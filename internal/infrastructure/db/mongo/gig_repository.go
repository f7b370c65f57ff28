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

type gigDocument struct {
	ID          string               `bson:"_id"`
	Title       string               `bson:"title"`
	Description string               `bson:"description"`
	Budget      primitive.Decimal128 `bson:"budget"`
	OwnerID     string               `bson:"owner_id"`
	Status      string               `bson:"status"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

func newGigDocument(g *domain.Gig) (gigDocument, error) {
	budget, err := toDecimal128(g.Budget)
	if err != nil {
		return gigDocument{}, fmt.Errorf("gig %s budget: %w", g.ID, err)
	}
	return gigDocument{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		Budget:      budget,
		OwnerID:     g.OwnerID,
		Status:      string(g.Status),
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}, nil
}

func (d gigDocument) toDomain() (*domain.Gig, error) {
	budget, err := fromDecimal128(d.Budget)
	if err != nil {
		return nil, fmt.Errorf("gig %s budget: %w", d.ID, err)
	}
	return &domain.Gig{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Budget:      budget,
		OwnerID:     d.OwnerID,
		Status:      domain.GigStatus(d.Status),
		CreatedAt:   d.CreatedAt,
		UpdatedAt:   d.UpdatedAt,
	}, nil
}

// GigRepository persists gigs in the "gigs" collection.
type GigRepository struct {
	col *mongo.Collection
	now func() time.Time
}

// Create inserts a new gig document.
func (r *GigRepository) Create(ctx context.Context, g *domain.Gig) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := newGigDocument(g)
	if err != nil {
		return err
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert gig: %w", err)
	}
	return nil
}

// FindByID retrieves a gig by id.
func (r *GigRepository) FindByID(ctx context.Context, id string) (*domain.Gig, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc gigDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrGigNotFound
		}
		return nil, fmt.Errorf("find gig: %w", err)
	}
	return doc.toDomain()
}

// FindByIDs returns the gigs that exist among ids.
func (r *GigRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.Gig, error) {
	out := make(map[string]*domain.Gig, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	gigs, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	for _, g := range gigs {
		out[g.ID] = g
	}
	return out, nil
}

// ListOpen returns open gigs, newest first.
func (r *GigRepository) ListOpen(ctx context.Context) ([]*domain.Gig, error) {
	return r.find(ctx, bson.M{"status": string(domain.GigOpen)})
}

// ListByOwner returns every gig of ownerID, newest first.
func (r *GigRepository) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Gig, error) {
	return r.find(ctx, bson.M{"owner_id": ownerID})
}

func (r *GigRepository) find(ctx context.Context, filter bson.M) ([]*domain.Gig, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cursor, err := r.col.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("find gigs: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []gigDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode gigs: %w", err)
	}

	gigs := make([]*domain.Gig, 0, len(docs))
	for _, d := range docs {
		g, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		gigs = append(gigs, g)
	}
	return gigs, nil
}

// TransitionStatus is a compare-and-set on the status field.
func (r *GigRepository) TransitionStatus(ctx context.Context, id string, from, to domain.GigStatus) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": id, "status": string(from)},
		bson.M{"$set": bson.M{"status": string(to), "updated_at": r.now()}},
	)
	if err != nil {
		return fmt.Errorf("update gig status: %w", err)
	}
	if res.MatchedCount == 0 {
		return r.missOrConflict(ctx, id, fmt.Sprintf("gig %s is no longer %s", id, from))
	}
	return nil
}

// DeleteOpen removes the gig only while it is open.
func (r *GigRepository) DeleteOpen(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id, "status": string(domain.GigOpen)})
	if err != nil {
		return fmt.Errorf("delete gig: %w", err)
	}
	if res.DeletedCount == 0 {
		return r.missOrConflict(ctx, id, fmt.Sprintf("gig %s is not open", id))
	}
	return nil
}

// missOrConflict explains a conditional write that matched nothing.
func (r *GigRepository) missOrConflict(ctx context.Context, id, conflict string) error {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("count gig: %w", err)
	}
	if n == 0 {
		return domain.ErrGigNotFound
	}
	return fmt.Errorf("%s: %w", conflict, domain.ErrInvalidState)
}

// EnsureIndexes creates the indexes backing the gig listings.
func (r *GigRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
