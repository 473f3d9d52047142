package ports

// ChatEvent is a single inbound chat line as delivered by the transport.
// Immutable after creation; the queue consumes it exactly once.
type ChatEvent struct {
	ID          string
	Username    string
	DisplayName string
	Text        string
	Timestamp   int64
	Color       string
	Badges      map[string]int
	Emotes      []EmoteRange
	IsSelf      bool
}

// EmoteRange marks a rune span of Text occupied by inline emote markup.
type EmoteRange struct {
	Start int
	End   int
}

type ChatPort interface {
	Connect(channel string) error
	Disconnect() error
	Say(channel, message string) error
	OnMessage(fn func(ev ChatEvent))
	OnConnect(fn func())
	OnDisconnect(fn func(reason string))
}
