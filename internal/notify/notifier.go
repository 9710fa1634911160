// Package notify carries dispatch outcomes to whoever listens: the
// requester UI, performer devices, the notification layer. Emission is
// explicit message passing; there is no module-level listener registry
// to subscribe through.
package notify

import (
	"context"

	"runmatch/pkg/types"
)

// Publisher broadcasts engine events. Implementations must tolerate
// being called from many dispatch goroutines at once.
type Publisher interface {
	Publish(ctx context.Context, ev types.Event) error
}

// Multi fans one event out to several publishers. Publish errors are
// collected but do not stop the remaining publishers; losing one
// transport must not hide the outcome from the others.
type Multi struct {
	publishers []Publisher
}

// NewMulti combines publishers into one.
func NewMulti(publishers ...Publisher) *Multi {
	return &Multi{publishers: publishers}
}

func (m *Multi) Publish(ctx context.Context, ev types.Event) error {
	var firstErr error
	for _, p := range m.publishers {
		if err := p.Publish(ctx, ev); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
