package task

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type mongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository creates a task repository backed by MongoDB.
func NewMongoRepository(coll *mongo.Collection) Repository {
	return &mongoRepository{coll: coll}
}

func (r *mongoRepository) Get(ctx context.Context, id string) (*Task, error) {
	var t Task
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("task: get %s: %w", id, err)
	}
	return &t, nil
}

func (r *mongoRepository) ListPending(ctx context.Context, kind Kind) ([]Task, error) {
	filter := bson.M{"status": StatusPending}
	if kind != "" {
		filter["kind"] = kind
	}

	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("task: list pending: %w", err)
	}
	defer cur.Close(ctx)

	var tasks []Task
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("task: decode pending: %w", err)
	}
	return tasks, nil
}

func (r *mongoRepository) Assign(ctx context.Context, taskID, performerID string) error {
	return r.transition(ctx, taskID, StatusPending, bson.M{
		"status":       StatusAssigned,
		"performer_id": performerID,
		"assigned_at":  time.Now().UTC(),
	})
}

func (r *mongoRepository) MarkUnfulfilled(ctx context.Context, taskID string) error {
	return r.transition(ctx, taskID, StatusPending, bson.M{"status": StatusUnfulfilled})
}

func (r *mongoRepository) MarkCancelled(ctx context.Context, taskID string) error {
	return r.transition(ctx, taskID, StatusPending, bson.M{"status": StatusCancelled})
}

// transition performs the conditional update that backs the CAS
// contract: the filter pins the expected prior status.
func (r *mongoRepository) transition(ctx context.Context, taskID string, from Status, set bson.M) error {
	res, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": taskID, "status": from},
		bson.M{"$set": set},
	)
	if err != nil {
		return fmt.Errorf("task: transition %s: %w", taskID, err)
	}
	if res.MatchedCount == 0 {
		if _, err := r.Get(ctx, taskID); err != nil {
			return err
		}
		return ErrStatusConflict
	}
	return nil
}

func (r *mongoRepository) Create(ctx context.Context, t *Task) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Status == "" {
		t.Status = StatusPending
	}
	if _, err := r.coll.InsertOne(ctx, t); err != nil {
		return fmt.Errorf("task: create: %w", err)
	}
	return nil
}
