// Package feed pushes bot lifecycle events to dashboard observers over
// websockets. Delivery is fire-and-forget: no acknowledgments, no
// replay for late joiners, and a subscriber that cannot keep up is
// dropped rather than back-pressuring the bot.
package feed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"twitchlate/internal/app/adapters/metrics"
	"twitchlate/internal/app/ports"
	"twitchlate/pkg/logger"
)

const sendBuffer = 64

type subscriber struct {
	conn *websocket.Conn
	send chan []byte
}

type Hub struct {
	log      logger.Logger
	upgrader websocket.Upgrader

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
}

func New(log logger.Logger) *Hub {
	return &Hub{
		log: log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		subscribers: make(map[*subscriber]struct{}),
	}
}

// Handle upgrades a dashboard connection and keeps it subscribed until
// it closes.
func (h *Hub) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error("Websocket upgrade failed", err)
		return
	}

	sub := &subscriber{
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	h.subscribers[sub] = struct{}{}
	metrics.FeedSubscribers.Set(float64(len(h.subscribers)))
	h.mu.Unlock()

	h.log.Info("Dashboard subscriber connected", slog.String("remote", conn.RemoteAddr().String()))

	go h.writeLoop(sub)
	h.readLoop(sub)
}

func (h *Hub) Publish(kind string, data any) {
	payload, err := json.Marshal(ports.Event{
		Type:      kind,
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
	})
	if err != nil {
		h.log.Error("Failed to marshal feed event", err, slog.String("kind", kind))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for sub := range h.subscribers {
		select {
		case sub.send <- payload:
		default:
			// slow consumer: close it out instead of blocking the bot
			h.dropLocked(sub)
		}
	}
}

func (h *Hub) Subscribers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *Hub) writeLoop(sub *subscriber) {
	for payload := range sub.send {
		if err := sub.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.remove(sub)
			return
		}
	}
}

// readLoop discards inbound frames; the feed is one-way. Its real job
// is noticing the peer went away.
func (h *Hub) readLoop(sub *subscriber) {
	defer h.remove(sub)

	for {
		if _, _, err := sub.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) remove(sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.dropLocked(sub)
}

func (h *Hub) dropLocked(sub *subscriber) {
	if _, ok := h.subscribers[sub]; !ok {
		return
	}

	delete(h.subscribers, sub)
	close(sub.send)
	_ = sub.conn.Close()
	metrics.FeedSubscribers.Set(float64(len(h.subscribers)))
}
