package history

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"runmatch/internal/affinity"
)

// completedTask is the slice of the completed-tasks collection the
// builder cares about.
type completedTask struct {
	Categories []string `bson:"categories"`
}

type mongoRepository struct {
	coll *mongo.Collection
}

// NewMongoRepository reads completed-task categories from MongoDB.
func NewMongoRepository(coll *mongo.Collection) Repository {
	return &mongoRepository{coll: coll}
}

func (r *mongoRepository) CompletedCategories(ctx context.Context, performerID string) ([]string, int, error) {
	cur, err := r.coll.Find(ctx, bson.M{"performer_id": performerID})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: find for %s: %w", ErrDataUnavailable, performerID, err)
	}
	defer cur.Close(ctx)

	var tags []string
	count := 0
	for cur.Next(ctx) {
		var ct completedTask
		if err := cur.Decode(&ct); err != nil {
			return nil, 0, fmt.Errorf("%w: decode for %s: %w", ErrDataUnavailable, performerID, err)
		}
		tags = append(tags, dedup(ct.Categories)...)
		count++
	}
	if err := cur.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: cursor for %s: %w", ErrDataUnavailable, performerID, err)
	}
	return tags, count, nil
}

// dedup normalizes tags and keeps each category once per task,
// preserving order. Deduping the normalized form means neither a
// multi-category task nor casing variants of one category can inflate
// a term's task count.
func dedup(tags []string) []string {
	norm := affinity.Normalize(tags)
	seen := make(map[string]bool, len(norm))
	out := norm[:0:0]
	for _, t := range norm {
		if seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
