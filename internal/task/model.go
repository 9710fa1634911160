package task

import (
	"errors"
	"time"

	"runmatch/pkg/types"
)

// Kind distinguishes the two task flavours of the marketplace.
type Kind string

const (
	KindErrand     Kind = "errand"
	KindCommission Kind = "commission"
)

// Status is the task lifecycle. Pending tasks are the engine's input;
// assigned, unfulfilled and cancelled are terminal.
type Status string

const (
	StatusPending     Status = "pending"
	StatusAssigned    Status = "assigned"
	StatusUnfulfilled Status = "unfulfilled"
	StatusCancelled   Status = "cancelled"
)

var (
	// ErrNotFound indicates an unknown task id.
	ErrNotFound = errors.New("task: not found")
	// ErrInvalidTask indicates a task that cannot be dispatched at all.
	ErrInvalidTask = errors.New("task: missing category tags or origin location")
	// ErrStatusConflict indicates a status write lost against a
	// concurrent transition; the expected prior status no longer holds.
	ErrStatusConflict = errors.New("task: status conflict")
)

// Task is a pending errand or commission awaiting assignment.
type Task struct {
	ID          string         `bson:"_id" json:"id"`
	Kind        Kind           `bson:"kind" json:"kind"`
	Categories  []string       `bson:"categories" json:"categories"`
	Origin      types.Location `bson:"origin" json:"origin"`
	CreatedAt   time.Time      `bson:"created_at" json:"created_at"`
	Status      Status         `bson:"status" json:"status"`
	PerformerID string         `bson:"performer_id,omitempty" json:"performer_id,omitempty"`
}

// Validate rejects tasks the engine must not start dispatching.
func (t *Task) Validate() error {
	if len(t.Categories) == 0 || t.Origin.IsZero() {
		return ErrInvalidTask
	}
	return nil
}
