package offer

import (
	"errors"
	"time"
)

// State is the offer lifecycle. Pending is the only non-terminal state;
// transitions out of it are one-way and final.
type State string

const (
	StatePending  State = "pending"
	StateAccepted State = "accepted"
	StateDeclined State = "declined"
	StateExpired  State = "expired"
)

var (
	// ErrNotFound indicates an unknown offer id.
	ErrNotFound = errors.New("offer: not found")
	// ErrStaleTransition indicates a resolution arrived for an offer
	// that is no longer pending. Callers treat it as an idempotent
	// no-op, not a failure.
	ErrStaleTransition = errors.New("offer: already resolved")
)

// Offer is a time-boxed proposal of one task to one candidate.
// Immutable once resolved.
type Offer struct {
	ID          string     `bson:"_id" json:"id"`
	TaskID      string     `bson:"task_id" json:"task_id"`
	PerformerID string     `bson:"performer_id" json:"performer_id"`
	OfferedAt   time.Time  `bson:"offered_at" json:"offered_at"`
	ExpiresAt   time.Time  `bson:"expires_at" json:"expires_at"`
	State       State      `bson:"state" json:"state"`
	ResolvedAt  *time.Time `bson:"resolved_at,omitempty" json:"resolved_at,omitempty"`
}
