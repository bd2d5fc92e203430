// internal/handlers/ws.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/jason-s-yu/bingo/internal/game"
	"github.com/jason-s-yu/bingo/internal/middleware"
	"github.com/jason-s-yu/bingo/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Subprotocol is the WebSocket subprotocol clients must request.
const Subprotocol = "bingo"

const (
	pingInterval = 30 * time.Second
	writeTimeout = 5 * time.Second

	// maxDropped is how many rate-limited frames a client may send in a row
	// before the socket is closed.
	maxDropped = 50
)

// WSOptions tunes the room socket.
type WSOptions struct {
	// OriginPatterns are passed to websocket.Accept. Empty allows any origin.
	OriginPatterns []string
	// EventRate of zero disables inbound rate limiting.
	EventRate  rate.Limit
	EventBurst int
}

// WSHandler upgrades a request to the room socket. Every connection gets a
// fresh identity, announced with "hello", that lasts until it disconnects.
func WSHandler(logger *logrus.Logger, store *game.RoomStore, hub *Hub, opts WSOptions) http.HandlerFunc {
	origins := opts.OriginPatterns
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	if opts.EventRate <= 0 {
		opts.EventRate = rate.Inf
	}
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			Subprotocols:   []string{Subprotocol},
			OriginPatterns: origins,
		})
		if err != nil {
			logger.WithError(err).Warn("websocket accept error")
			return
		}
		defer c.Close(websocket.StatusInternalError, "handler finished")

		if c.Subprotocol() != Subprotocol {
			c.Close(BadSubprotocolError, "client must speak the bingo subprotocol")
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		userID := uuid.New()
		conn := NewConnection(userID, cancel, logger)
		hub.Register(conn)
		sess := NewSession(conn, store, hub, logger)
		sess.NameHint = r.URL.Query().Get("name")

		middleware.LogWebSocketConnect(logger, r.RemoteAddr, r.URL.Path)
		conn.Write(models.Event{Type: models.EventHello, Payload: models.HelloPayload{UserID: userID}})

		go writePump(ctx, c, conn, logger)
		limiter := rate.NewLimiter(opts.EventRate, opts.EventBurst)
		err = readPump(ctx, c, sess, limiter, logger)

		hub.Unregister(userID)
		sess.Close()
		middleware.LogWebSocketDisconnect(logger, r.RemoteAddr, r.URL.Path, err)

		if errors.Is(err, errRateLimited) {
			c.Close(RateLimitedError, "too many events")
			return
		}
		c.Close(websocket.StatusNormalClosure, "")
	}
}

var errRateLimited = errors.New("rate limit exceeded")

// readPump feeds text frames to the session until the socket closes. It
// returns nil on a normal close.
func readPump(ctx context.Context, c *websocket.Conn, sess *Session, limiter *rate.Limiter, logger *logrus.Logger) error {
	dropped := 0
	for {
		typ, msg, err := c.Read(ctx)
		if err != nil {
			status := websocket.CloseStatus(err)
			if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway || ctx.Err() != nil {
				return nil
			}
			return err
		}
		if typ != websocket.MessageText {
			logger.WithField("user", sess.conn.UserID).Debug("ignoring non-text frame")
			continue
		}
		if !limiter.Allow() {
			dropped++
			if dropped >= maxDropped {
				return errRateLimited
			}
			continue
		}
		dropped = 0
		sess.Handle(ctx, msg)
	}
}

// writePump drains the connection's queue onto the socket and keeps it alive
// with periodic pings.
func writePump(ctx context.Context, c *websocket.Conn, conn *Connection, logger *logrus.Logger) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-conn.OutChan:
			data, err := json.Marshal(ev)
			if err != nil {
				logger.WithError(err).WithField("event", ev.Type).Warn("failed to marshal outgoing event")
				continue
			}
			writeCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err = c.Write(writeCtx, websocket.MessageText, data)
			cancel()
			if err != nil {
				logger.WithError(err).WithField("user", conn.UserID).Debug("write failed; closing connection")
				conn.Cancel()
				return
			}
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Ping(pingCtx)
			cancel()
			if err != nil {
				logger.WithError(err).WithField("user", conn.UserID).Debug("ping failed; closing connection")
				conn.Cancel()
				return
			}
		}
	}
}
