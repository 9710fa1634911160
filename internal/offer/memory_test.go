package offer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pendingOffer(id, taskID string, offeredAt time.Time) *Offer {
	return &Offer{
		ID:          id,
		TaskID:      taskID,
		PerformerID: "p-" + id,
		OfferedAt:   offeredAt,
		ExpiresAt:   offeredAt.Add(time.Minute),
		State:       StatePending,
	}
}

func TestResolveIsCompareAndSet(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, pendingOffer("o1", "t1", time.Now())))

	require.NoError(t, repo.Resolve(ctx, "o1", StateAccepted))

	// Every later outcome loses: decline, expiry, even a second accept.
	assert.ErrorIs(t, repo.Resolve(ctx, "o1", StateDeclined), ErrStaleTransition)
	assert.ErrorIs(t, repo.Resolve(ctx, "o1", StateExpired), ErrStaleTransition)
	assert.ErrorIs(t, repo.Resolve(ctx, "o1", StateAccepted), ErrStaleTransition)

	got, err := repo.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, StateAccepted, got.State)
	assert.NotNil(t, got.ResolvedAt)
}

func TestResolveUnknownOffer(t *testing.T) {
	repo := NewMemoryRepository()
	assert.ErrorIs(t, repo.Resolve(context.Background(), "nope", StateExpired), ErrNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, pendingOffer("o1", "t1", time.Now())))

	got, err := repo.Get(ctx, "o1")
	require.NoError(t, err)
	got.State = StateDeclined

	again, err := repo.Get(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, StatePending, again.State)
}

func TestListByTaskInCreationOrder(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	base := time.Now()
	require.NoError(t, repo.Create(ctx, pendingOffer("o1", "t1", base)))
	require.NoError(t, repo.Create(ctx, pendingOffer("o2", "t1", base.Add(time.Second))))
	require.NoError(t, repo.Create(ctx, pendingOffer("other", "t2", base)))

	got, err := repo.ListByTask(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "o1", got[0].ID)
	assert.Equal(t, "o2", got[1].ID)
}
