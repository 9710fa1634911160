package ranking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"runmatch/internal/history"
	"runmatch/internal/locate"
	"runmatch/internal/performer"
	"runmatch/internal/task"
	"runmatch/pkg/types"
)

var testOrigin = types.Location{Lat: 40.4168, Lng: -3.7038}

func testTask(categories ...string) *task.Task {
	return &task.Task{
		ID:         "t1",
		Kind:       task.KindErrand,
		Categories: categories,
		Origin:     testOrigin,
		Status:     task.StatusPending,
	}
}

func newTestRanker(performers performer.Repository, histories history.Repository, w Weights) *Ranker {
	return New(locate.New(performers), history.NewBuilder(histories), w, 5000, 5, zap.NewNop())
}

func seed(t *testing.T, repo performer.Repository, profiles ...performer.Profile) {
	t.Helper()
	for i := range profiles {
		require.NoError(t, repo.Upsert(context.Background(), &profiles[i]))
	}
}

func TestRankOrdersByAffinity(t *testing.T) {
	performers := performer.NewMemoryRepository()
	histories := history.NewMemoryRepository()
	seed(t, performers,
		performer.Profile{ID: "cook", Location: testOrigin, Available: true, Rating: 3},
		performer.Profile{ID: "plumber", Location: testOrigin, Available: true, Rating: 3},
	)
	histories.RecordCompletion("cook", []string{"food"})
	histories.RecordCompletion("plumber", []string{"plumbing"})

	r := newTestRanker(performers, histories, Weights{Affinity: 1})
	ranked, err := r.Rank(context.Background(), testTask("food"), nil)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "cook", ranked[0].PerformerID)
	assert.Greater(t, ranked[0].Affinity, ranked[1].Affinity)
	assert.Zero(t, ranked[1].Affinity)
}

func TestRankDistanceMonotonic(t *testing.T) {
	performers := performer.NewMemoryRepository()
	histories := history.NewMemoryRepository()
	seed(t, performers,
		performer.Profile{ID: "near", Location: types.Location{Lat: 40.4170, Lng: -3.7038}, Available: true},
		performer.Profile{ID: "farther", Location: types.Location{Lat: 40.4450, Lng: -3.7038}, Available: true},
	)

	r := newTestRanker(performers, histories, Weights{Distance: 1})
	ranked, err := r.Rank(context.Background(), testTask("food"), nil)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "near", ranked[0].PerformerID)
	assert.Greater(t, ranked[0].Score, ranked[1].Score)
}

func TestRankRatingSignal(t *testing.T) {
	performers := performer.NewMemoryRepository()
	histories := history.NewMemoryRepository()
	seed(t, performers,
		performer.Profile{ID: "mid", Location: testOrigin, Available: true, Rating: 3.5},
		performer.Profile{ID: "top", Location: testOrigin, Available: true, Rating: 4.9},
	)

	r := newTestRanker(performers, histories, Weights{Rating: 1})
	ranked, err := r.Rank(context.Background(), testTask("food"), nil)
	require.NoError(t, err)
	require.Len(t, ranked, 2)
	assert.Equal(t, "top", ranked[0].PerformerID)
}

func TestRankDeterministicTieBreak(t *testing.T) {
	performers := performer.NewMemoryRepository()
	histories := history.NewMemoryRepository()
	// Identical signals all around: order must fall back to id.
	seed(t, performers,
		performer.Profile{ID: "zeta", Location: testOrigin, Available: true, Rating: 4},
		performer.Profile{ID: "alpha", Location: testOrigin, Available: true, Rating: 4},
		performer.Profile{ID: "mike", Location: testOrigin, Available: true, Rating: 4},
	)

	r := newTestRanker(performers, histories, Weights{Affinity: 0.5, Distance: 0.3, Rating: 0.2})
	for i := 0; i < 10; i++ {
		ranked, err := r.Rank(context.Background(), testTask("food"), nil)
		require.NoError(t, err)
		require.Len(t, ranked, 3)
		assert.Equal(t, "alpha", ranked[0].PerformerID)
		assert.Equal(t, "mike", ranked[1].PerformerID)
		assert.Equal(t, "zeta", ranked[2].PerformerID)
	}
}

func TestRankExcludesAttemptedCandidates(t *testing.T) {
	performers := performer.NewMemoryRepository()
	histories := history.NewMemoryRepository()
	seed(t, performers,
		performer.Profile{ID: "a", Location: testOrigin, Available: true, Rating: 5},
		performer.Profile{ID: "b", Location: testOrigin, Available: true, Rating: 4},
	)

	r := newTestRanker(performers, histories, Weights{Rating: 1})
	ranked, err := r.Rank(context.Background(), testTask("food"), map[string]bool{"a": true})
	require.NoError(t, err)
	require.Len(t, ranked, 1)
	assert.Equal(t, "b", ranked[0].PerformerID)
}

func TestRankHistoryUnavailableDegradesToZeroAffinity(t *testing.T) {
	performers := performer.NewMemoryRepository()
	histories := history.NewMemoryRepository()
	seed(t, performers,
		performer.Profile{ID: "flaky", Location: testOrigin, Available: true, Rating: 5},
		performer.Profile{ID: "solid", Location: testOrigin, Available: true, Rating: 1},
	)
	histories.SetUnavailable("flaky", true)
	histories.RecordCompletion("solid", []string{"food"})

	r := newTestRanker(performers, histories, Weights{Affinity: 1})
	ranked, err := r.Rank(context.Background(), testTask("food"), nil)
	require.NoError(t, err)
	require.Len(t, ranked, 2, "a failed history lookup must not drop the candidate")
	assert.Equal(t, "solid", ranked[0].PerformerID)
	byID := map[string]Candidate{}
	for _, c := range ranked {
		byID[c.PerformerID] = c
	}
	assert.Zero(t, byID["flaky"].Affinity)
}

func TestRankEmptyPool(t *testing.T) {
	performers := performer.NewMemoryRepository()
	histories := history.NewMemoryRepository()

	r := newTestRanker(performers, histories, Weights{Affinity: 1})
	ranked, err := r.Rank(context.Background(), testTask("food"), nil)
	require.NoError(t, err)
	assert.Empty(t, ranked)
}
