package locate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"runmatch/internal/performer"
	"runmatch/pkg/types"
)

func seedPerformers(t *testing.T, repo performer.Repository, profiles ...performer.Profile) {
	t.Helper()
	for i := range profiles {
		require.NoError(t, repo.Upsert(context.Background(), &profiles[i]))
	}
}

func TestAvailableNearFiltersByRadius(t *testing.T) {
	repo := performer.NewMemoryRepository()
	origin := types.Location{Lat: 40.4168, Lng: -3.7038}
	seedPerformers(t, repo,
		performer.Profile{ID: "close", Location: types.Location{Lat: 40.4180, Lng: -3.7040}, Available: true},
		performer.Profile{ID: "far", Location: types.Location{Lat: 41.3874, Lng: 2.1686}, Available: true},
	)

	got, err := New(repo).AvailableNear(context.Background(), origin, 5000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "close", got[0].Profile.ID)
	assert.Less(t, got[0].DistanceMeters, 5000.0)
}

func TestAvailableNearExcludesUnavailable(t *testing.T) {
	repo := performer.NewMemoryRepository()
	origin := types.Location{Lat: 40.4168, Lng: -3.7038}
	seedPerformers(t, repo,
		performer.Profile{ID: "on", Location: origin, Available: true},
		performer.Profile{ID: "off", Location: origin, Available: false},
	)

	got, err := New(repo).AvailableNear(context.Background(), origin, 1000)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "on", got[0].Profile.ID)
}

func TestAvailableNearEmptyIsNotAnError(t *testing.T) {
	repo := performer.NewMemoryRepository()
	got, err := New(repo).AvailableNear(context.Background(), types.Location{Lat: 1, Lng: 1}, 1000)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAvailableNearDeterministicOrder(t *testing.T) {
	repo := performer.NewMemoryRepository()
	origin := types.Location{Lat: 40.4168, Lng: -3.7038}
	seedPerformers(t, repo,
		performer.Profile{ID: "c", Location: origin, Available: true},
		performer.Profile{ID: "a", Location: origin, Available: true},
		performer.Profile{ID: "b", Location: origin, Available: true},
	)

	loc := New(repo)
	for i := 0; i < 5; i++ {
		got, err := loc.AvailableNear(context.Background(), origin, 1000)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, "a", got[0].Profile.ID)
		assert.Equal(t, "b", got[1].Profile.ID)
		assert.Equal(t, "c", got[2].Profile.ID)
	}
}
