package game

import "errors"

// Admission errors. They are the only failures reported back to a client.
var (
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomFull     = errors.New("room full")
)
