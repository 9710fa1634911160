package offer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

type mongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository creates an offer repository backed by MongoDB.
func NewMongoRepository(coll *mongo.Collection) Repository {
	return &mongoRepository{coll: coll}
}

func (r *mongoRepository) Create(ctx context.Context, o *Offer) error {
	if _, err := r.coll.InsertOne(ctx, o); err != nil {
		return fmt.Errorf("offer: create: %w", err)
	}
	return nil
}

func (r *mongoRepository) Get(ctx context.Context, id string) (*Offer, error) {
	var o Offer
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&o)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("offer: get %s: %w", id, err)
	}
	return &o, nil
}

// Resolve relies on a conditional update: the filter pins state=pending,
// so near-simultaneous outcomes cannot both match.
func (r *mongoRepository) Resolve(ctx context.Context, id string, to State) error {
	now := time.Now().UTC()
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": id, "state": StatePending},
		bson.M{"$set": bson.M{"state": to, "resolved_at": now}},
	)
	if err != nil {
		return fmt.Errorf("offer: resolve %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.Get(ctx, id); err != nil {
			return err
		}
		return ErrStaleTransition
	}
	return nil
}

func (r *mongoRepository) ListByTask(ctx context.Context, taskID string) ([]Offer, error) {
	cur, err := r.coll.Find(ctx,
		bson.M{"task_id": taskID},
		options.Find().SetSort(bson.D{{Key: "offered_at", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("offer: list by task %s: %w", taskID, err)
	}
	defer cur.Close(ctx)

	var offers []Offer
	if err := cur.All(ctx, &offers); err != nil {
		return nil, fmt.Errorf("offer: decode by task %s: %w", taskID, err)
	}
	return offers, nil
}
