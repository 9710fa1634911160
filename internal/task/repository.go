package task

import "context"

// Repository is the task persistence contract the engine consumes.
// Status transitions are compare-and-set on the expected prior status:
// implementations return ErrStatusConflict when the task is no longer
// in that status, so concurrent outcomes cannot both win.
type Repository interface {
	Get(ctx context.Context, id string) (*Task, error)
	ListPending(ctx context.Context, kind Kind) ([]Task, error)

	// Assign moves pending -> assigned and records the winner.
	Assign(ctx context.Context, taskID, performerID string) error
	// MarkUnfulfilled moves pending -> unfulfilled.
	MarkUnfulfilled(ctx context.Context, taskID string) error
	// MarkCancelled moves pending -> cancelled.
	MarkCancelled(ctx context.Context, taskID string) error

	Create(ctx context.Context, t *Task) error
}
