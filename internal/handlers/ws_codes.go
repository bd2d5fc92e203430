// internal/handlers/ws_codes.go
package handlers

// Custom WebSocket close codes used by the room socket.
const (
	BadSubprotocolError = 3000 // Client connected with an unsupported subprotocol.
	RateLimitedError    = 3001 // Client kept sending after its event budget was exhausted.
)
