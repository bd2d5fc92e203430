// internal/handlers/rooms.go
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/jason-s-yu/bingo/internal/game"
	"github.com/jason-s-yu/bingo/internal/models"
	"github.com/sirupsen/logrus"
)

// HealthHandler answers GET / with {"ok":true}.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// RoomsHandler serves the diagnostic room endpoints. POST creates an empty
// room, removed by the janitor if nobody joins it; GET lists every live room.
func RoomsHandler(logger *logrus.Logger, store *game.RoomStore, hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			room := store.CreateRoom(r.Context())
			logger.WithField("room", room.Code).Info("room created over http")
			hub.PublishRooms(store)
			writeJSON(w, http.StatusOK, models.RoomCodePayload{RoomCode: room.Code})
		case http.MethodGet:
			writeJSON(w, http.StatusOK, store.Summaries())
		default:
			w.Header().Set("Allow", "GET, POST")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
