package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/gigflow/marketplace/internal/core/domain"
)

// UserRepository reads the accounts written by the identity service. Those
// documents may carry ObjectID or string ids; both are accepted.
type UserRepository struct {
	col *mongo.Collection
}

type userDocument struct {
	ID    interface{} `bson:"_id"`
	Name  string      `bson:"name"`
	Email string      `bson:"email"`
}

func (d userDocument) id() string {
	switch v := d.ID.(type) {
	case primitive.ObjectID:
		return v.Hex()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// FindByIDs returns the users that exist among ids, keyed by the id as given.
func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error) {
	out := make(map[string]*domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	keys := make([]interface{}, 0, len(ids)*2)
	for _, id := range ids {
		keys = append(keys, id)
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			keys = append(keys, oid)
		}
	}

	opts := options.Find().SetProjection(bson.M{"name": 1, "email": 1})
	cursor, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": keys}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []userDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	for _, d := range docs {
		id := d.id()
		out[id] = &domain.User{ID: id, Name: d.Name, Email: d.Email}
	}
	return out, nil
}
