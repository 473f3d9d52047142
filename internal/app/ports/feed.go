package ports

const (
	EventConnected       = "connected"
	EventMessageReceived = "message_received"
	EventTranslating     = "translating"
	EventMessageSent     = "message_sent"
	EventError           = "error"
	// EventStatus carries non-error lifecycle notices. The stop command
	// still emits a legacy "error" event alongside it for old dashboards.
	EventStatus = "status"
)

// Event is broadcast to every feed subscriber. Fire-and-forget: no
// delivery guarantee, no replay for late joiners.
type Event struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
	Data      any    `json:"data"`
}

type FeedPort interface {
	Publish(kind string, data any)
	Subscribers() int
}
