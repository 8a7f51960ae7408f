package agent

import (
	"time"

	"github.com/google/uuid"
)

// Action is one unit of work or event notification moving through the queue.
// Immutable once enqueued: consumed exactly once by the Loop, then discarded.
type Action struct {
	ID         string         `json:"id"`
	Kind       Kind           `json:"kind"`
	Payload    map[string]any `json:"payload,omitempty"`
	EnqueuedAt time.Time      `json:"enqueued_at"`
}

// NewAction builds an action with a fresh ID and enqueue timestamp.
func NewAction(kind Kind, payload map[string]any) Action {
	return Action{
		ID:         uuid.NewString(),
		Kind:       kind,
		Payload:    payload,
		EnqueuedAt: time.Now().UTC(),
	}
}
