// internal/handlers/hub.go
package handlers

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bingo/internal/game"
	"github.com/jason-s-yu/bingo/internal/models"
	"github.com/sirupsen/logrus"
)

// outboundBuffer is the per-connection queue depth. A client that falls this
// far behind is disconnected rather than allowed to stall its rooms.
const outboundBuffer = 64

// Connection is one live socket. Rooms never write to the socket directly:
// events are queued on OutChan and drained by the write pump.
type Connection struct {
	UserID  uuid.UUID
	OutChan chan models.Event
	Cancel  context.CancelFunc

	logger *logrus.Logger
}

func NewConnection(userID uuid.UUID, cancel context.CancelFunc, logger *logrus.Logger) *Connection {
	return &Connection{
		UserID:  userID,
		OutChan: make(chan models.Event, outboundBuffer),
		Cancel:  cancel,
		logger:  logger,
	}
}

// Write queues ev without blocking. When the queue is full the event is
// dropped and the connection is cancelled, so the client goes through the
// disconnect path instead of staying on a stale view.
func (c *Connection) Write(ev models.Event) bool {
	select {
	case c.OutChan <- ev:
		return true
	default:
		c.logger.WithFields(logrus.Fields{
			"user":  c.UserID,
			"event": ev.Type,
		}).Warn("outbound queue full; closing connection")
		if c.Cancel != nil {
			c.Cancel()
		}
		return false
	}
}

// Hub tracks every connected client and routes room events to them. It is the
// game.Broadcaster for the room store.
type Hub struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]*Connection

	// feedMu serializes roomsUpdate snapshots so clients never see an older
	// summary after a newer one.
	feedMu sync.Mutex

	logger *logrus.Logger
}

func NewHub(logger *logrus.Logger) *Hub {
	return &Hub{
		conns:  make(map[uuid.UUID]*Connection),
		logger: logger,
	}
}

func (h *Hub) Register(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c.UserID] = c
}

func (h *Hub) Unregister(userID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, userID)
}

// Count returns the number of registered connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

// Send delivers ev to one client. Unknown identities are ignored.
func (h *Hub) Send(userID uuid.UUID, ev models.Event) {
	h.mu.RLock()
	c := h.conns[userID]
	h.mu.RUnlock()
	if c != nil {
		c.Write(ev)
	}
}

// SendAll delivers ev to every connected client.
func (h *Hub) SendAll(ev models.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.conns {
		c.Write(ev)
	}
}

// PublishRooms sends the current room list to every client. Callers must not
// hold a room lock.
func (h *Hub) PublishRooms(store *game.RoomStore) {
	h.feedMu.Lock()
	defer h.feedMu.Unlock()
	h.SendAll(models.Event{Type: models.EventRoomsUpdate, Payload: store.Summaries()})
}
