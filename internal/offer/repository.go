package offer

import "context"

// Repository persists offers. Resolve is a compare-and-set keyed on the
// pending state: exactly one of {accept, decline, timeout} can win, the
// losers get ErrStaleTransition.
type Repository interface {
	Create(ctx context.Context, o *Offer) error
	Get(ctx context.Context, id string) (*Offer, error)

	// Resolve moves pending -> to. ErrStaleTransition when the offer
	// was already resolved by a competing outcome.
	Resolve(ctx context.Context, id string, to State) error

	// ListByTask returns every offer made for one task in creation
	// order, which is the realized dispatch attempt.
	ListByTask(ctx context.Context, taskID string) ([]Offer, error)
}
