package performer

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type mongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository creates a performer repository backed by MongoDB.
func NewMongoRepository(coll *mongo.Collection) Repository {
	return &mongoRepository{coll: coll}
}

func (r *mongoRepository) Get(ctx context.Context, id string) (*Profile, error) {
	var p Profile
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("performer: get %s: %w", id, err)
	}
	return &p, nil
}

func (r *mongoRepository) ListAvailable(ctx context.Context) ([]Profile, error) {
	cur, err := r.coll.Find(ctx, bson.M{"available": true})
	if err != nil {
		return nil, fmt.Errorf("performer: list available: %w", err)
	}
	defer cur.Close(ctx)

	var profiles []Profile
	if err := cur.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("performer: decode available: %w", err)
	}
	return profiles, nil
}

func (r *mongoRepository) Upsert(ctx context.Context, p *Profile) error {
	_, err := r.coll.ReplaceOne(ctx,
		bson.M{"_id": p.ID},
		p,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("performer: upsert %s: %w", p.ID, err)
	}
	return nil
}
