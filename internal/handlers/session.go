// internal/handlers/session.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jason-s-yu/bingo/internal/game"
	"github.com/jason-s-yu/bingo/internal/models"
	"github.com/sirupsen/logrus"
)

// Client-facing admission errors.
const (
	msgRoomNotFound = "Room not found"
	msgRoomFull     = "Room full"
)

// Session routes the inbound events of one connection to the room store.
// Malformed or rejected requests are dropped silently; only admission failures
// produce an error event.
type Session struct {
	conn   *Connection
	store  *game.RoomStore
	hub    *Hub
	logger *logrus.Logger

	// NameHint seeds the display name for rooms this connection joins.
	NameHint string
}

func NewSession(conn *Connection, store *game.RoomStore, hub *Hub, logger *logrus.Logger) *Session {
	return &Session{conn: conn, store: store, hub: hub, logger: logger}
}

// Handle decodes and applies one inbound frame.
func (s *Session) Handle(ctx context.Context, data []byte) {
	var msg models.InboundMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.drop("", "invalid json", err)
		return
	}

	var req models.RoomRequest
	if len(msg.Payload) > 0 && string(msg.Payload) != "null" {
		if err := json.Unmarshal(msg.Payload, &req); err != nil {
			if msg.Type == models.EventJoinRoom {
				s.conn.Write(models.NewErrorEvent(msgRoomNotFound))
			}
			s.drop(msg.Type, "invalid payload", err)
			return
		}
	}
	req.RoomCode = game.NormalizeCode(req.RoomCode)

	if msg.Type == models.EventCreateRoom {
		s.createRoom(ctx)
		return
	}
	if msg.Type == models.EventJoinRoom {
		s.joinRoom(req.RoomCode)
		return
	}

	room, ok := s.store.GetRoom(req.RoomCode)
	if !ok {
		s.drop(msg.Type, "unknown room", nil)
		return
	}

	var applied bool
	switch msg.Type {
	case models.EventLeaveRoom:
		applied = room.Leave(s.conn.UserID)
		if applied {
			s.hub.PublishRooms(s.store)
		}
	case models.EventChooseColor:
		applied = room.ChooseColor(s.conn.UserID, req.Color)
	case models.EventSetName:
		applied = room.SetName(s.conn.UserID, req.Name)
	case models.EventClickTile:
		applied = req.Index != nil && room.ClickTile(s.conn.UserID, *req.Index)
	case models.EventUndoTile:
		applied = req.Index != nil && room.UndoTile(s.conn.UserID, *req.Index)
	case models.EventEditTile:
		applied = req.TileID != nil && room.EditTile(*req.TileID, req.Text)
	case models.EventClearRoom:
		applied = room.ResetBoard(ctx)
	case models.EventClearBoard:
		applied = room.ClearLabels()
	case models.EventStartGame:
		applied = room.StartGame()
	default:
		s.drop(msg.Type, "unknown event", nil)
		return
	}
	if !applied {
		s.drop(msg.Type, "rejected", nil)
	}
}

// createRoom registers a room and joins the caller to it.
func (s *Session) createRoom(ctx context.Context) {
	room := s.store.CreateRoom(ctx)
	s.conn.Write(models.Event{
		Type:    models.EventRoomCreated,
		Payload: models.RoomCodePayload{RoomCode: room.Code},
	})
	if err := room.Join(s.conn.UserID, s.NameHint); err != nil {
		s.logger.WithError(err).WithField("room", room.Code).Warn("creator could not join new room")
	}
	s.hub.PublishRooms(s.store)
}

func (s *Session) joinRoom(code string) {
	room, ok := s.store.GetRoom(code)
	if !ok {
		s.conn.Write(models.NewErrorEvent(msgRoomNotFound))
		return
	}
	if err := room.Join(s.conn.UserID, s.NameHint); err != nil {
		s.conn.Write(models.NewErrorEvent(clientMessage(err)))
		return
	}
	s.hub.PublishRooms(s.store)
}

// Close runs the disconnect path: the identity leaves every room it is in.
func (s *Session) Close() {
	if s.store.LeaveAll(s.conn.UserID) {
		s.hub.PublishRooms(s.store)
	}
}

func (s *Session) drop(typ models.EventType, reason string, err error) {
	entry := s.logger.WithFields(logrus.Fields{
		"user":   s.conn.UserID,
		"event":  typ,
		"reason": reason,
	})
	if err != nil {
		entry = entry.WithError(err)
	}
	entry.Debug("dropped inbound event")
}

func clientMessage(err error) string {
	switch {
	case errors.Is(err, game.ErrRoomFull):
		return msgRoomFull
	case errors.Is(err, game.ErrRoomNotFound):
		return msgRoomNotFound
	default:
		return err.Error()
	}
}
