package models

// RoomStatus advances waiting -> started -> finished.
type RoomStatus string

const (
	StatusWaiting  RoomStatus = "waiting"
	StatusStarted  RoomStatus = "started"
	StatusFinished RoomStatus = "finished"
)

// PublicState is the projection of a room sent with every stateUpdate.
type PublicState struct {
	Board   []PublicTile   `json:"board"`
	Players []PublicPlayer `json:"players"`
	Status  RoomStatus     `json:"status"`
}

// RoomSummary is one entry of the global lobby feed.
type RoomSummary struct {
	Code        string     `json:"code"`
	PlayerCount int        `json:"playerCount"`
	Status      RoomStatus `json:"status"`
}
