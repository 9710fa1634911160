package locate

import (
	"context"
	"fmt"
	"sort"

	"runmatch/internal/geo"
	"runmatch/internal/performer"
	"runmatch/pkg/types"
)

// Candidate is one available performer within range of a task,
// annotated with the measured distance so the ranker does not have to
// recompute it.
type Candidate struct {
	Profile        performer.Profile
	DistanceMeters float64
}

// Locator filters the live performer snapshot geographically. It is
// pure over its inputs: every call reads a fresh snapshot and an empty
// result is a legal outcome, not a failure.
type Locator struct {
	performers performer.Repository
}

// New creates a candidate locator over the given performer snapshot.
func New(performers performer.Repository) *Locator {
	return &Locator{performers: performers}
}

// AvailableNear returns available performers within radiusMeters of
// origin, sorted by ascending performer id for deterministic output.
func (l *Locator) AvailableNear(ctx context.Context, origin types.Location, radiusMeters float64) ([]Candidate, error) {
	profiles, err := l.performers.ListAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("locate: snapshot: %w", err)
	}

	candidates := make([]Candidate, 0, len(profiles))
	for _, p := range profiles {
		d := geo.Distance(origin, p.Location)
		if d > radiusMeters {
			continue
		}
		candidates = append(candidates, Candidate{Profile: p, DistanceMeters: d})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Profile.ID < candidates[j].Profile.ID
	})
	return candidates, nil
}
