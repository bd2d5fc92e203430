package models

import "github.com/google/uuid"

// Player is a room member. Identity is bound to one connection for its lifetime.
type Player struct {
	UserID uuid.UUID `json:"userId"`
	Name   string    `json:"name"`
	Color  Color     `json:"color"`

	// Score always equals the number of tiles this player owns.
	Score int `json:"score"`
}

// PublicPlayer is the client-visible projection of a Player.
type PublicPlayer struct {
	UserID uuid.UUID `json:"userId"`
	Name   string    `json:"name"`
	Color  *Color    `json:"color"`
	Score  int       `json:"score"`
}

// Public projects the player for broadcast.
func (p *Player) Public() PublicPlayer {
	return PublicPlayer{
		UserID: p.UserID,
		Name:   p.Name,
		Color:  p.Color.ptr(),
		Score:  p.Score,
	}
}
