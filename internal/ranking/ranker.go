package ranking

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"

	"runmatch/internal/affinity"
	"runmatch/internal/history"
	"runmatch/internal/locate"
	"runmatch/internal/task"
)

// Weights combine the three signals. Monotonic: a better affinity,
// shorter distance or higher rating never lowers the combined score.
type Weights struct {
	Affinity float64
	Distance float64
	Rating   float64
}

// Candidate is one ranked performer with the per-signal breakdown kept
// for diagnostics.
type Candidate struct {
	PerformerID    string
	DistanceMeters float64
	Rating         float64
	Affinity       float64
	Score          float64
}

// Ranker merges affinity, distance and rating into one ordered list.
// Every call recomputes against a fresh live snapshot: candidate pools
// change between dispatch attempts, so nothing here is cached.
type Ranker struct {
	locator   *locate.Locator
	histories *history.Builder
	weights   Weights
	radius    float64
	maxRating float64
	log       *zap.Logger
}

// New creates a ranker. radiusMeters bounds the candidate search and
// normalizes the distance score; maxRating normalizes the rating score.
func New(locator *locate.Locator, histories *history.Builder, weights Weights, radiusMeters, maxRating float64, log *zap.Logger) *Ranker {
	return &Ranker{
		locator:   locator,
		histories: histories,
		weights:   weights,
		radius:    radiusMeters,
		maxRating: maxRating,
		log:       log,
	}
}

// Rank produces the ordered candidate list for one task, skipping ids
// in exclude (performers already offered this task). Identical inputs
// produce identical order: ties break on ascending performer id.
func (r *Ranker) Rank(ctx context.Context, t *task.Task, exclude map[string]bool) ([]Candidate, error) {
	located, err := r.locator.AvailableNear(ctx, t.Origin, r.radius)
	if err != nil {
		return nil, err
	}

	pool := located[:0:0]
	for _, c := range located {
		if exclude[c.Profile.ID] {
			continue
		}
		pool = append(pool, c)
	}
	if len(pool) == 0 {
		return nil, nil
	}

	// Fan out history lookups so the pass is bounded by the slowest
	// single fetch. Results land in a fixed slot per candidate, no
	// shared mutation.
	docs := make([]history.Document, len(pool))
	var wg sync.WaitGroup
	wg.Add(len(pool))
	for i, c := range pool {
		go func(i int, performerID string) {
			defer wg.Done()
			doc, err := r.histories.Build(ctx, performerID)
			if err != nil {
				if !errors.Is(err, history.ErrDataUnavailable) {
					r.log.Warn("history lookup failed, scoring with empty history",
						zap.String("performer_id", performerID), zap.Error(err))
				} else {
					r.log.Debug("history unavailable, scoring with empty history",
						zap.String("performer_id", performerID))
				}
				doc = history.Document{PerformerID: performerID}
			}
			docs[i] = doc
		}(i, c.Profile.ID)
	}
	wg.Wait()

	ranked := make([]Candidate, len(pool))
	for i, c := range pool {
		aff := affinity.Score(t.Categories, docs[i].Categories, docs[i].TaskCount)
		ranked[i] = Candidate{
			PerformerID:    c.Profile.ID,
			DistanceMeters: c.DistanceMeters,
			Rating:         c.Profile.Rating,
			Affinity:       aff,
			Score:          r.combine(aff, c.DistanceMeters, c.Profile.Rating),
		}
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].PerformerID < ranked[j].PerformerID
	})
	return ranked, nil
}

// combine is the documented weighted sum:
//
//	score = Wa*affinity + Wd*(1 - min(distance/radius, 1)) + Wr*clamp(rating/maxRating)
//
// distanceScore decreases monotonically with distance and is 0 at the
// radius edge; ratingScore is the aggregate rating on a 0..1 scale.
func (r *Ranker) combine(aff, distanceMeters, rating float64) float64 {
	distScore := 1 - distanceMeters/r.radius
	if distScore < 0 {
		distScore = 0
	}
	ratingScore := rating / r.maxRating
	if ratingScore < 0 {
		ratingScore = 0
	} else if ratingScore > 1 {
		ratingScore = 1
	}
	return r.weights.Affinity*aff + r.weights.Distance*distScore + r.weights.Rating*ratingScore
}
