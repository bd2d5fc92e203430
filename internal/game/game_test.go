package game

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bingo/internal/models"
	"github.com/stretchr/testify/require"
)

// mockBroadcaster collects events instead of sending them over WS.
type mockBroadcaster struct {
	mu     sync.Mutex
	events map[uuid.UUID][]models.Event
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{events: make(map[uuid.UUID][]models.Event)}
}

func (mb *mockBroadcaster) Send(userID uuid.UUID, ev models.Event) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.events[userID] = append(mb.events[userID], ev)
}

func (mb *mockBroadcaster) clear() {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.events = make(map[uuid.UUID][]models.Event)
}

func (mb *mockBroadcaster) all(userID uuid.UUID) []models.Event {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	out := make([]models.Event, len(mb.events[userID]))
	copy(out, mb.events[userID])
	return out
}

func (mb *mockBroadcaster) last(userID uuid.UUID) *models.Event {
	evs := mb.all(userID)
	if len(evs) == 0 {
		return nil
	}
	return &evs[len(evs)-1]
}

func (mb *mockBroadcaster) ofType(userID uuid.UUID, typ models.EventType) []models.Event {
	var out []models.Event
	for _, ev := range mb.all(userID) {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

// lastState returns the payload of the most recent stateUpdate sent to userID.
func (mb *mockBroadcaster) lastState(t *testing.T, userID uuid.UUID) models.PublicState {
	t.Helper()
	updates := mb.ofType(userID, models.EventStateUpdate)
	require.NotEmpty(t, updates, "no stateUpdate for %s", userID)
	state, ok := updates[len(updates)-1].Payload.(models.PublicState)
	require.True(t, ok)
	return state
}

// staticSource serves a fixed pool or a fixed error.
type staticSource struct {
	phrases []string
	err     error
}

func (s staticSource) Phrases(ctx context.Context) ([]string, error) {
	return s.phrases, s.err
}

func numberedPhrases(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("Phrase %02d", i)
	}
	return out
}

// setupTestRoom creates a store with a single room joined by two players who
// hold the first two palette colors.
func setupTestRoom(t *testing.T) (*RoomStore, *Room, uuid.UUID, uuid.UUID, *mockBroadcaster) {
	t.Helper()
	mb := newMockBroadcaster()
	store := NewRoomStore(NewBoardGenerator(staticSource{phrases: numberedPhrases(30)}, 0), mb)
	room := store.CreateRoom(context.Background())

	a, b := uuid.New(), uuid.New()
	require.NoError(t, room.Join(a, "alice"))
	require.NoError(t, room.Join(b, "bob"))
	require.True(t, room.ChooseColor(a, models.Palette[0]))
	require.True(t, room.ChooseColor(b, models.Palette[1]))
	mb.clear()
	return store, room, a, b, mb
}

// checkInvariants asserts the board/player invariants that must hold after
// every operation.
func checkInvariants(t *testing.T, r *Room) {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()

	require.LessOrEqual(t, len(r.players), MaxPlayers)
	require.Len(t, r.board, TotalTiles)

	owned := make(map[uuid.UUID]int)
	colors := make(map[models.Color]uuid.UUID)
	for _, p := range r.players {
		if p.Color != models.NoColor {
			holder, dup := colors[p.Color]
			require.False(t, dup, "color %s held by %s and %s", p.Color, holder, p.UserID)
			colors[p.Color] = p.UserID
		}
	}
	for i, tile := range r.board {
		require.Equal(t, tile.OwnerID == uuid.Nil, tile.Color == models.NoColor, "tile %d partially claimed", i)
		if tile.Owned() {
			owner := r.playerUnsafe(tile.OwnerID)
			require.NotNil(t, owner, "tile %d owned by non-member", i)
			require.Equal(t, owner.Color, tile.Color, "tile %d color drifted from owner", i)
			owned[tile.OwnerID]++
		}
	}
	for _, p := range r.players {
		require.Equal(t, owned[p.UserID], p.Score, "score of %s", p.UserID)
	}
}
