package room

import "errors"

// Error taxonomy for rejected requests. Every one of these is surfaced to
// the offending connection only, as a plain error message; none of them
// changes any room state.
var (
	ErrRoomNotFound   = errors.New("game not found")
	ErrRoomFull       = errors.New("game is full")
	ErrNotYourTurn    = errors.New("not your turn")
	ErrInvalidMove    = errors.New("invalid move")
	ErrInvalidName    = errors.New("name must be 2-15 characters")
	ErrAlreadyInRoom  = errors.New("already in a game")
	ErrMessageTooLong = errors.New("message too long")
	ErrGameNotActive  = errors.New("game is not active")
)
