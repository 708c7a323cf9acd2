package event

import "time"

// EventType identifies the kind of lifecycle event.
type EventType string

const (
	// Session lifecycle
	SessionStarted EventType = "session.started"
	SessionEnded   EventType = "session.ended"

	// Memory lifecycle
	MemoryCreated  EventType = "memory.created"
	MemoryPromoted EventType = "memory.promoted"
	MemoryDeduped  EventType = "memory.deduped"
	MemoryDeleted  EventType = "memory.deleted"
)

// Event carries data about a lifecycle occurrence.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, data map[string]interface{}) Event {
	return Event{
		Type:      t,
		Timestamp: time.Now(),
		Data:      data,
	}
}
