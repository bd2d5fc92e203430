package models

import (
	"encoding/json"

	"github.com/google/uuid"
)

// EventType names a message exchanged over the room socket.
type EventType string

// Client -> server events.
const (
	EventCreateRoom  EventType = "createRoom"
	EventJoinRoom    EventType = "joinRoom"
	EventLeaveRoom   EventType = "leaveRoom"
	EventChooseColor EventType = "chooseColor"
	EventSetName     EventType = "setName"
	EventClickTile   EventType = "clickTile"
	EventUndoTile    EventType = "undoTile"
	EventEditTile    EventType = "editTile"
	EventClearRoom   EventType = "clearRoom"
	EventClearBoard  EventType = "clearBoard"
	EventStartGame   EventType = "startGame"
)

// Server -> client events.
const (
	EventHello       EventType = "hello"
	EventRoomCreated EventType = "roomCreated"
	EventJoined      EventType = "joined"
	EventStateUpdate EventType = "stateUpdate"
	EventGameOver    EventType = "gameOver"
	EventGameStarted EventType = "gameStarted"
	EventRoomsUpdate EventType = "roomsUpdate"
	EventRoomClosed  EventType = "roomClosed"
	EventError       EventType = "error"
)

// Win reasons carried by gameOver.
const (
	ReasonBingo  = "bingo"
	ReasonPoints = "points"
)

// Event is an outbound frame: {"type": ..., "payload": ...}.
type Event struct {
	Type    EventType   `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// InboundMessage is an inbound frame. Payload is decoded per event type.
type InboundMessage struct {
	Type    EventType       `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// RoomRequest carries the fields used by the room-scoped inbound events.
// Index and TileID are pointers so a missing value is distinguishable from 0.
type RoomRequest struct {
	RoomCode string `json:"roomCode"`
	Color    Color  `json:"color,omitempty"`
	Name     string `json:"name,omitempty"`
	Index    *int   `json:"index,omitempty"`
	TileID   *int   `json:"tileId,omitempty"`
	Text     string `json:"text,omitempty"`
}

type HelloPayload struct {
	UserID uuid.UUID `json:"userId"`
}

type RoomCodePayload struct {
	RoomCode string `json:"roomCode"`
}

type JoinedPayload struct {
	RoomCode string      `json:"roomCode"`
	State    PublicState `json:"state"`
}

// GameOverPayload carries a nil Winner on a points tie.
type GameOverPayload struct {
	Winner *uuid.UUID `json:"winner"`
	Reason string     `json:"reason"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// NewErrorEvent builds the error frame sent to a single client.
func NewErrorEvent(msg string) Event {
	return Event{Type: EventError, Payload: ErrorPayload{Message: msg}}
}
