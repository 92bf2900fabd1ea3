package model

// EventType identifies a stream event
type EventType string

const (
	EventStatus   EventType = "status"   // Phase change, carries Message
	EventProgress EventType = "progress" // One stance verified, carries Issue/Index/Total/Stance
	EventComplete EventType = "complete" // Terminal, carries Data
	EventError    EventType = "error"    // Terminal, carries Error
)

// Event is a single incremental update of a streamed analysis
type Event struct {
	Type    EventType        `json:"type"`
	Message string           `json:"message,omitempty"`
	Issue   string           `json:"issue,omitempty"`
	Index   int              `json:"index,omitempty"`
	Total   int              `json:"total,omitempty"`
	Stance  *PoliticalStance `json:"stance,omitempty"`
	Data    *Analysis        `json:"data,omitempty"`
	Error   string           `json:"error,omitempty"`
}

// Terminal reports whether the event ends the stream
func (e Event) Terminal() bool {
	return e.Type == EventComplete || e.Type == EventError
}
