package models

import "github.com/google/uuid"

// Color is one of the fixed palette values a player can hold.
type Color string

// NoColor marks an unassigned player or an unclaimed tile.
const NoColor Color = ""

// Palette lists every color a player may choose, in display order.
var Palette = []Color{"#e74c3c", "#3498db", "#2ecc71", "#f1c40f", "#9b59b6"}

// Valid reports whether c belongs to the palette.
func (c Color) Valid() bool {
	for _, p := range Palette {
		if c == p {
			return true
		}
	}
	return false
}

func (c Color) ptr() *Color {
	if c == NoColor {
		return nil
	}
	return &c
}

// Tile is one cell of a board. OwnerID and Color are set and cleared together.
type Tile struct {
	Label   string    `json:"label"`
	OwnerID uuid.UUID `json:"-"`
	Color   Color     `json:"color"`
}

// Owned reports whether some player has claimed the tile.
func (t Tile) Owned() bool {
	return t.OwnerID != uuid.Nil
}

// PublicTile is what clients see of a tile: the owner identity is never exposed.
type PublicTile struct {
	Label string `json:"label"`
	Color *Color `json:"color"`
}

// Public projects the tile for broadcast.
func (t Tile) Public() PublicTile {
	return PublicTile{Label: t.Label, Color: t.Color.ptr()}
}
