package game

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bingo/internal/models"
	log "github.com/sirupsen/logrus"
)

// CodeAlphabet excludes the look-alike characters 0, O, 1 and I.
const CodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// CodeLength is the number of characters in a room code.
const CodeLength = 4

// RoomStore is the process-wide registry of live rooms. It is created at
// startup and never persisted.
//
// Lock order: a room lock may be held while taking the store lock (OnEmpty),
// never the other way round.
type RoomStore struct {
	mu    sync.Mutex
	rooms map[string]*Room
	order []string

	generator   *BoardGenerator
	broadcaster Broadcaster
	newCode     func() string
	now         func() time.Time
}

// StoreOption customizes a RoomStore.
type StoreOption func(*RoomStore)

// WithCodeGenerator replaces the random room code source.
func WithCodeGenerator(fn func() string) StoreOption {
	return func(s *RoomStore) { s.newCode = fn }
}

// WithClock replaces time.Now for activity tracking.
func WithClock(now func() time.Time) StoreOption {
	return func(s *RoomStore) { s.now = now }
}

// NewRoomStore returns an empty registry whose rooms draw boards from gen and
// publish through b.
func NewRoomStore(gen *BoardGenerator, b Broadcaster, opts ...StoreOption) *RoomStore {
	s := &RoomStore{
		rooms:       make(map[string]*Room),
		generator:   gen,
		broadcaster: b,
		newCode:     RandomCode,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RandomCode draws CodeLength characters from CodeAlphabet.
func RandomCode() string {
	var sb strings.Builder
	for i := 0; i < CodeLength; i++ {
		sb.WriteByte(CodeAlphabet[rand.IntN(len(CodeAlphabet))])
	}
	return sb.String()
}

// NormalizeCode trims and upper-cases a client supplied room code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// CreateRoom generates a board, then registers a new waiting room under a code
// no live room uses.
func (s *RoomStore) CreateRoom(ctx context.Context) *Room {
	board := s.generator.Generate(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	code := s.newCode()
	for s.rooms[code] != nil {
		code = s.newCode()
	}
	room := newRoom(code, board, s.generator, s.broadcaster, s.now)
	room.OnEmpty = s.removeEmpty
	s.rooms[code] = room
	s.order = append(s.order, code)

	log.WithField("room", code).Info("room created")
	return room
}

// GetRoom looks up a live room by code.
func (s *RoomStore) GetRoom(code string) (*Room, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rooms[NormalizeCode(code)]
	return r, ok
}

// DeleteRoom removes a room from the registry.
func (s *RoomStore) DeleteRoom(code string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteUnsafe(NormalizeCode(code))
}

// removeEmpty is the OnEmpty hook. It runs under the room's lock.
func (s *RoomStore) removeEmpty(code string) {
	s.DeleteRoom(code)
	log.WithField("room", code).Info("room emptied and removed")
}

func (s *RoomStore) deleteUnsafe(code string) {
	if _, ok := s.rooms[code]; !ok {
		return
	}
	delete(s.rooms, code)
	for i, c := range s.order {
		if c == code {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

// Rooms returns the live rooms in creation order.
func (s *RoomStore) Rooms() []*Room {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Room, 0, len(s.order))
	for _, code := range s.order {
		out = append(out, s.rooms[code])
	}
	return out
}

// Summaries lists every live room for the lobby feed, in creation order.
func (s *RoomStore) Summaries() []models.RoomSummary {
	rooms := s.Rooms()
	out := make([]models.RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, r.Summary())
	}
	return out
}

// LeaveAll removes userID from every room it belongs to and reports whether
// any membership changed.
func (s *RoomStore) LeaveAll(userID uuid.UUID) bool {
	changed := false
	for _, r := range s.Rooms() {
		if r.Leave(userID) {
			changed = true
		}
	}
	return changed
}

// SweepIdle closes and removes rooms without activity for at least ttl and
// returns their codes. A non-positive ttl disables the sweep.
func (s *RoomStore) SweepIdle(now time.Time, ttl time.Duration) []string {
	return s.sweep(now, ttl, false)
}

// SweepEmpty removes rooms nobody has joined within ttl, such as rooms created
// over HTTP. A non-positive ttl disables the sweep.
func (s *RoomStore) SweepEmpty(now time.Time, ttl time.Duration) []string {
	return s.sweep(now, ttl, true)
}

func (s *RoomStore) sweep(now time.Time, ttl time.Duration, emptyOnly bool) []string {
	if ttl <= 0 {
		return nil
	}
	var evicted []string
	for _, r := range s.Rooms() {
		if !r.closeIfIdle(now, ttl, emptyOnly) {
			continue
		}
		s.DeleteRoom(r.Code)
		evicted = append(evicted, r.Code)
		log.WithFields(log.Fields{"room": r.Code, "emptyOnly": emptyOnly}).Info("idle room evicted")
	}
	return evicted
}
