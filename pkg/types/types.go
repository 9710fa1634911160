package types

import (
	"encoding/json"
	"time"
)

// Location is a WGS84 coordinate pair shared by tasks and performers.
type Location struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// IsZero reports whether the location was never set.
func (l Location) IsZero() bool {
	return l.Lat == 0 && l.Lng == 0
}

// EventType names the outcomes the engine broadcasts.
type EventType string

const (
	EventOfferCreated    EventType = "OFFER_CREATED"
	EventTaskAssigned    EventType = "TASK_ASSIGNED"
	EventTaskUnfulfilled EventType = "TASK_UNFULFILLED"
	EventTaskCancelled   EventType = "TASK_CANCELLED"
)

// Event is the generic envelope published to subscribers.
// Type tells consumers how to decode Data.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// ---- PAYLOADS ----

// OfferCreated is emitted when a task is offered to a candidate.
type OfferCreated struct {
	OfferID     string    `json:"offer_id"`
	TaskID      string    `json:"task_id"`
	PerformerID string    `json:"performer_id"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// TaskAssigned is emitted once, when a candidate accepts before expiry.
type TaskAssigned struct {
	TaskID      string `json:"task_id"`
	PerformerID string `json:"performer_id"`
}

// TaskUnfulfilled is emitted when the candidate pool is exhausted.
type TaskUnfulfilled struct {
	TaskID string `json:"task_id"`
}

// TaskCancelled is emitted when a task is withdrawn while dispatching.
type TaskCancelled struct {
	TaskID string `json:"task_id"`
}

// NewEvent wraps a payload in an envelope. Marshalling these plain
// structs cannot fail, so the error is swallowed on purpose.
func NewEvent(t EventType, payload any) Event {
	data, _ := json.Marshal(payload)
	return Event{Type: t, Data: data}
}
