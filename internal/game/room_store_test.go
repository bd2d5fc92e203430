package game

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bingo/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandomCodeAlphabet(t *testing.T) {
	for i := 0; i < 500; i++ {
		code := RandomCode()
		require.Len(t, code, CodeLength)
		for _, ch := range code {
			assert.True(t, strings.ContainsRune(CodeAlphabet, ch), "unexpected %q in %s", ch, code)
		}
	}
	assert.NotContains(t, CodeAlphabet, "0")
	assert.NotContains(t, CodeAlphabet, "O")
	assert.NotContains(t, CodeAlphabet, "1")
	assert.NotContains(t, CodeAlphabet, "I")
}

func TestCreateRoomRetriesOnCollision(t *testing.T) {
	codes := []string{"AAAA", "AAAA", "AAAA", "BBBB"}
	next := 0
	store := NewRoomStore(NewBoardGenerator(nil, 0), newMockBroadcaster(), WithCodeGenerator(func() string {
		c := codes[next]
		next++
		return c
	}))

	first := store.CreateRoom(context.Background())
	second := store.CreateRoom(context.Background())
	assert.Equal(t, "AAAA", first.Code)
	assert.Equal(t, "BBBB", second.Code)
	assert.Equal(t, 4, next)

	state := first.State()
	assert.Equal(t, models.StatusWaiting, state.Status)
	assert.Empty(t, state.Players)
	assert.Len(t, state.Board, TotalTiles)
}

func TestGetRoomNormalizesCode(t *testing.T) {
	store := NewRoomStore(NewBoardGenerator(nil, 0), newMockBroadcaster(), WithCodeGenerator(func() string { return "AB3K" }))
	room := store.CreateRoom(context.Background())

	got, ok := store.GetRoom("  ab3k ")
	require.True(t, ok)
	assert.Same(t, room, got)

	_, ok = store.GetRoom("ZZZZ")
	assert.False(t, ok)

	store.DeleteRoom("ab3k")
	_, ok = store.GetRoom("AB3K")
	assert.False(t, ok)
	assert.Empty(t, store.Summaries())
}

func TestSummariesInCreationOrder(t *testing.T) {
	codes := []string{"CCCC", "AAAA", "BBBB"}
	next := 0
	store := NewRoomStore(NewBoardGenerator(nil, 0), newMockBroadcaster(), WithCodeGenerator(func() string {
		c := codes[next]
		next++
		return c
	}))
	rooms := make([]*Room, len(codes))
	for i := range codes {
		rooms[i] = store.CreateRoom(context.Background())
	}
	a := uuid.New()
	require.NoError(t, rooms[1].Join(a, ""))
	require.True(t, rooms[2].StartGame())

	assert.Equal(t, []models.RoomSummary{
		{Code: "CCCC", PlayerCount: 0, Status: models.StatusWaiting},
		{Code: "AAAA", PlayerCount: 1, Status: models.StatusWaiting},
		{Code: "BBBB", PlayerCount: 0, Status: models.StatusStarted},
	}, store.Summaries())
}

func TestLeaveAll(t *testing.T) {
	store, room, a, b, mb := setupTestRoom(t)
	other := store.CreateRoom(context.Background())
	require.NoError(t, other.Join(a, "alice"))
	mb.clear()

	assert.True(t, store.LeaveAll(a))
	assert.False(t, room.HasPlayer(a))
	assert.Len(t, mb.lastState(t, b).Players, 1)

	_, ok := store.GetRoom(other.Code)
	assert.False(t, ok, "room left empty by the disconnect is removed")
	_, ok = store.GetRoom(room.Code)
	assert.True(t, ok)

	assert.False(t, store.LeaveAll(uuid.New()))
}

func TestSweepIdle(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		mu.Lock()
		now = now.Add(d)
		mu.Unlock()
	}

	codes := []string{"IDLE", "BUSY"}
	next := 0
	mb := newMockBroadcaster()
	store := NewRoomStore(NewBoardGenerator(nil, 0), mb, WithClock(clock), WithCodeGenerator(func() string {
		c := codes[next]
		next++
		return c
	}))
	idle := store.CreateRoom(context.Background())
	busy := store.CreateRoom(context.Background())
	a, b := uuid.New(), uuid.New()
	require.NoError(t, idle.Join(a, ""))
	require.NoError(t, busy.Join(b, ""))

	assert.Nil(t, store.SweepIdle(clock(), 0), "disabled")

	advance(10 * time.Minute)
	require.True(t, busy.SetName(b, "still here"))
	advance(10 * time.Minute)

	evicted := store.SweepIdle(clock(), 15*time.Minute)
	assert.Equal(t, []string{"IDLE"}, evicted)

	closed := mb.ofType(a, models.EventRoomClosed)
	require.Len(t, closed, 1)
	assert.Equal(t, models.RoomCodePayload{RoomCode: "IDLE"}, closed[0].Payload)
	assert.Empty(t, mb.ofType(b, models.EventRoomClosed))

	_, ok := store.GetRoom("IDLE")
	assert.False(t, ok)
	assert.ErrorIs(t, idle.Join(a, ""), ErrRoomNotFound)
	assert.Equal(t, []models.RoomSummary{{Code: "BUSY", PlayerCount: 1, Status: models.StatusWaiting}}, store.Summaries())
}

func TestSweepEmptyKeepsJoinedRooms(t *testing.T) {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	codes := []string{"NONE", "USED"}
	next := 0
	store := NewRoomStore(NewBoardGenerator(nil, 0), newMockBroadcaster(),
		WithClock(func() time.Time { return now }),
		WithCodeGenerator(func() string {
			c := codes[next]
			next++
			return c
		}),
	)
	store.CreateRoom(context.Background())
	used := store.CreateRoom(context.Background())
	require.NoError(t, used.Join(uuid.New(), ""))

	assert.Nil(t, store.SweepEmpty(now.Add(time.Hour), 0), "disabled")
	assert.Empty(t, store.SweepEmpty(now.Add(time.Minute), 10*time.Minute), "not yet expired")

	evicted := store.SweepEmpty(now.Add(time.Hour), 10*time.Minute)
	assert.Equal(t, []string{"NONE"}, evicted)
	assert.Equal(t, []models.RoomSummary{{Code: "USED", PlayerCount: 1, Status: models.StatusWaiting}}, store.Summaries())
}

// TestTwoPlayerScenario plays a full room from creation to bingo.
func TestTwoPlayerScenario(t *testing.T) {
	mb := newMockBroadcaster()
	store := NewRoomStore(
		NewBoardGenerator(staticSource{phrases: numberedPhrases(40)}, 0),
		mb,
		WithCodeGenerator(func() string { return "AB3K" }),
	)
	room := store.CreateRoom(context.Background())
	a, b := uuid.New(), uuid.New()

	require.NoError(t, room.Join(a, ""))
	joined, ok := store.GetRoom("ab3k")
	require.True(t, ok)
	require.NoError(t, joined.Join(b, ""))

	require.True(t, room.ChooseColor(a, models.Palette[0]))
	assert.False(t, room.ChooseColor(b, models.Palette[0]))
	require.True(t, room.ChooseColor(b, models.Palette[1]))
	require.True(t, room.StartGame())

	for _, idx := range []int{0, 6, 12, 18} {
		require.True(t, room.ClickTile(a, idx))
	}
	require.True(t, room.ClickTile(b, 24))
	assert.False(t, room.ClickTile(a, 24))
	require.True(t, room.ClickTile(b, 24), "b undoes")
	require.True(t, room.ClickTile(a, 24))

	overs := mb.ofType(b, models.EventGameOver)
	require.Len(t, overs, 1)
	over := overs[0].Payload.(models.GameOverPayload)
	assert.Equal(t, a, *over.Winner)
	assert.Equal(t, models.ReasonBingo, over.Reason)

	state := mb.lastState(t, b)
	assert.Equal(t, models.StatusFinished, state.Status)
	assert.Equal(t, 5, state.Players[0].Score)
	assert.Equal(t, 0, state.Players[1].Score)
	checkInvariants(t, room)

	require.True(t, room.Leave(a))
	require.True(t, room.Leave(b))
	assert.Empty(t, store.Summaries())
}
