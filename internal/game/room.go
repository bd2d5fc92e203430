package game

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bingo/internal/models"
	log "github.com/sirupsen/logrus"
)

const (
	MaxPlayers     = 2
	MaxNameLength  = 24
	MaxLabelLength = 50
)

// Broadcaster delivers an event to one connected identity. Implementations must
// not block: rooms call Send while holding their lock.
type Broadcaster interface {
	Send(userID uuid.UUID, ev models.Event)
}

// Room is one game session. Every exported method handles its request from
// validation through broadcast under the room lock, so members see updates in
// the order they were applied. Mutators report whether anything
// changed; a false result means the request was dropped without a broadcast.
type Room struct {
	Code string

	mu           sync.Mutex
	board        Board
	players      []*models.Player
	status       models.RoomStatus
	closed       bool
	lastActivity time.Time

	generator   *BoardGenerator
	broadcaster Broadcaster
	now         func() time.Time

	// OnEmpty runs under the room lock once the last player has left.
	OnEmpty func(code string)
}

func newRoom(code string, board Board, gen *BoardGenerator, b Broadcaster, now func() time.Time) *Room {
	return &Room{
		Code:         code,
		board:        board,
		players:      make([]*models.Player, 0, MaxPlayers),
		status:       models.StatusWaiting,
		lastActivity: now(),
		generator:    gen,
		broadcaster:  b,
		now:          now,
	}
}

// Join adds userID as a player. Re-joining is a no-op apart from re-sending the
// state. The joiner receives "joined", then every member receives "stateUpdate".
func (r *Room) Join(userID uuid.UUID, nameHint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}
	if r.playerUnsafe(userID) == nil {
		if len(r.players) >= MaxPlayers {
			return ErrRoomFull
		}
		r.players = append(r.players, &models.Player{
			UserID: userID,
			Name:   defaultName(nameHint, userID),
		})
		log.WithFields(log.Fields{"room": r.Code, "user": userID}).Info("player joined")
	}
	r.touchUnsafe()

	state := r.stateUnsafe()
	r.sendUnsafe(userID, models.Event{
		Type:    models.EventJoined,
		Payload: models.JoinedPayload{RoomCode: r.Code, State: state},
	})
	r.broadcastUnsafe(models.Event{Type: models.EventStateUpdate, Payload: state})
	return nil
}

// Leave removes userID and releases the tiles they owned. The room closes when
// it becomes empty.
func (r *Room) Leave(userID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, p := range r.players {
		if p.UserID == userID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false
	}
	r.players = append(r.players[:idx], r.players[idx+1:]...)
	for i := range r.board {
		if r.board[i].OwnerID == userID {
			r.board[i] = models.Tile{Label: r.board[i].Label}
		}
	}
	r.touchUnsafe()
	log.WithFields(log.Fields{"room": r.Code, "user": userID}).Info("player left")

	if len(r.players) == 0 {
		r.closed = true
		if r.OnEmpty != nil {
			r.OnEmpty(r.Code)
		}
		return true
	}
	r.broadcastStateUnsafe()
	return true
}

// ChooseColor assigns a palette color not held by another member. Tiles the
// player already owns take the new color.
func (r *Room) ChooseColor(userID uuid.UUID, color models.Color) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || !color.Valid() {
		return false
	}
	p := r.playerUnsafe(userID)
	if p == nil {
		return false
	}
	for _, other := range r.players {
		if other.UserID != userID && other.Color == color {
			return false
		}
	}
	p.Color = color
	for i := range r.board {
		if r.board[i].OwnerID == userID {
			r.board[i].Color = color
		}
	}
	r.touchUnsafe()
	r.broadcastStateUnsafe()
	return true
}

// SetName renames a member. Names are trimmed and capped at MaxNameLength runes.
func (r *Room) SetName(userID uuid.UUID, name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	trimmed := truncate(strings.TrimSpace(name), MaxNameLength)
	if r.closed || trimmed == "" {
		return false
	}
	p := r.playerUnsafe(userID)
	if p == nil {
		return false
	}
	p.Name = trimmed
	r.touchUnsafe()
	r.broadcastStateUnsafe()
	return true
}

// ClickTile toggles index for userID: it claims a free tile, undoes the
// player's own tile and ignores a tile held by the opponent.
func (r *Room) ClickTile(userID uuid.UUID, index int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerUnsafe(userID)
	if p == nil || p.Color == models.NoColor {
		return false
	}
	return r.toggleUnsafe(p, index, true)
}

// UndoTile releases a tile owned by userID.
func (r *Room) UndoTile(userID uuid.UUID, index int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.playerUnsafe(userID)
	if p == nil {
		return false
	}
	return r.toggleUnsafe(p, index, false)
}

// toggleUnsafe is the only place tile ownership and score change together.
func (r *Room) toggleUnsafe(p *models.Player, index int, allowClaim bool) bool {
	if r.closed || r.status == models.StatusFinished || index < 0 || index >= len(r.board) {
		return false
	}
	tile := &r.board[index]

	switch {
	case tile.OwnerID == p.UserID:
		tile.OwnerID = uuid.Nil
		tile.Color = models.NoColor
		if p.Score > 0 {
			p.Score--
		}
		r.touchUnsafe()
		r.broadcastStateUnsafe()
		return true
	case tile.Owned() || !allowClaim:
		return false
	}

	tile.OwnerID = p.UserID
	tile.Color = p.Color
	p.Score++
	r.touchUnsafe()

	over := r.resolveClaimUnsafe(p.UserID)
	r.broadcastStateUnsafe()
	if over != nil {
		fields := log.Fields{"room": r.Code, "reason": over.Reason}
		if over.Winner != nil {
			fields["winner"] = over.Winner.String()
		}
		log.WithFields(fields).Info("game over")
		r.broadcastUnsafe(models.Event{Type: models.EventGameOver, Payload: *over})
	}
	return true
}

// resolveClaimUnsafe runs win detection after userID claimed a tile and
// finishes the game when a line is complete or the board is full.
func (r *Room) resolveClaimUnsafe(userID uuid.UUID) *models.GameOverPayload {
	if hasLine(r.ownedMaskUnsafe(userID), bingoLines) {
		r.status = models.StatusFinished
		winner := userID
		return &models.GameOverPayload{Winner: &winner, Reason: models.ReasonBingo}
	}
	for _, t := range r.board {
		if !t.Owned() {
			return nil
		}
	}
	r.status = models.StatusFinished
	return &models.GameOverPayload{Winner: r.pointsLeaderUnsafe(), Reason: models.ReasonPoints}
}

func (r *Room) ownedMaskUnsafe(userID uuid.UUID) uint64 {
	var mask uint64
	for i, t := range r.board {
		if t.OwnerID == userID {
			mask |= 1 << uint(i)
		}
	}
	return mask
}

// pointsLeaderUnsafe returns the strict arg-max of score over current members,
// or nil when the top score is shared or there are no members.
func (r *Room) pointsLeaderUnsafe() *uuid.UUID {
	var best *models.Player
	tied := false
	for _, p := range r.players {
		switch {
		case best == nil || p.Score > best.Score:
			best = p
			tied = false
		case p.Score == best.Score:
			tied = true
		}
	}
	if best == nil || tied {
		return nil
	}
	winner := best.UserID
	return &winner
}

// EditTile relabels an unowned tile. Any connection may edit.
func (r *Room) EditTile(index int, text string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || index < 0 || index >= len(r.board) || r.board[index].Owned() {
		return false
	}
	r.board[index].Label = truncate(strings.TrimSpace(text), MaxLabelLength)
	r.touchUnsafe()
	r.broadcastStateUnsafe()
	return true
}

// ResetBoard replaces the board with a freshly generated one, discarding every
// claim. Scores drop to zero with the claims; the status is left as is. The
// phrase pool is read before the lock is taken.
func (r *Room) ResetBoard(ctx context.Context) bool {
	board := r.generator.Generate(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}
	r.board = board
	r.zeroScoresUnsafe()
	r.touchUnsafe()
	r.broadcastStateUnsafe()
	return true
}

// ClearLabels blanks every tile in place: label, color and owner. Scores are
// reconciled to zero so they keep matching the board.
func (r *Room) ClearLabels() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}
	for i := range r.board {
		r.board[i] = models.Tile{}
	}
	r.zeroScoresUnsafe()
	r.touchUnsafe()
	r.broadcastStateUnsafe()
	return true
}

// StartGame forces the room into the started status.
func (r *Room) StartGame() bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return false
	}
	r.status = models.StatusStarted
	r.touchUnsafe()
	r.broadcastStateUnsafe()
	r.broadcastUnsafe(models.Event{Type: models.EventGameStarted})
	return true
}

// State returns the public projection of the room.
func (r *Room) State() models.PublicState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stateUnsafe()
}

// Summary returns the lobby-feed entry for the room.
func (r *Room) Summary() models.RoomSummary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return models.RoomSummary{Code: r.Code, PlayerCount: len(r.players), Status: r.status}
}

// HasPlayer reports whether userID is a member.
func (r *Room) HasPlayer(userID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.playerUnsafe(userID) != nil
}

// closeIfIdle destroys the room when it has gone at least ttl without a
// mutation, telling the remaining members. With emptyOnly set, rooms that
// still have players are kept.
func (r *Room) closeIfIdle(now time.Time, ttl time.Duration, emptyOnly bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed || now.Sub(r.lastActivity) < ttl {
		return false
	}
	if emptyOnly && len(r.players) > 0 {
		return false
	}
	r.closed = true
	r.broadcastUnsafe(models.Event{
		Type:    models.EventRoomClosed,
		Payload: models.RoomCodePayload{RoomCode: r.Code},
	})
	r.players = nil
	return true
}

func (r *Room) playerUnsafe(userID uuid.UUID) *models.Player {
	for _, p := range r.players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (r *Room) zeroScoresUnsafe() {
	for _, p := range r.players {
		p.Score = 0
	}
}

func (r *Room) touchUnsafe() {
	r.lastActivity = r.now()
}

func (r *Room) stateUnsafe() models.PublicState {
	state := models.PublicState{
		Board:   make([]models.PublicTile, len(r.board)),
		Players: make([]models.PublicPlayer, len(r.players)),
		Status:  r.status,
	}
	for i, t := range r.board {
		state.Board[i] = t.Public()
	}
	for i, p := range r.players {
		state.Players[i] = p.Public()
	}
	return state
}

func (r *Room) broadcastStateUnsafe() {
	r.broadcastUnsafe(models.Event{Type: models.EventStateUpdate, Payload: r.stateUnsafe()})
}

func (r *Room) broadcastUnsafe(ev models.Event) {
	for _, p := range r.players {
		r.sendUnsafe(p.UserID, ev)
	}
}

func (r *Room) sendUnsafe(userID uuid.UUID, ev models.Event) {
	if r.broadcaster != nil {
		r.broadcaster.Send(userID, ev)
	}
}

// defaultName derives a display name from the connection hint, falling back to
// the last characters of the identity.
func defaultName(hint string, userID uuid.UUID) string {
	if name := truncate(strings.TrimSpace(hint), MaxNameLength); name != "" {
		return name
	}
	id := userID.String()
	return "Player-" + id[len(id)-4:]
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) > n {
		return string(runes[:n])
	}
	return s
}
