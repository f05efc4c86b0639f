package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Game flow
	ErrGameActive      = errors.New("a game is already running in this chat")
	ErrNoGame          = errors.New("no active game in this chat")
	ErrJoinClosed      = errors.New("joining is closed for this game")
	ErrAlreadyJoined   = errors.New("player already joined")
	ErrUnknownGameType = errors.New("unknown game type")
	ErrNoContent       = errors.New("no content available for game type")

	// Access and infrastructure
	ErrNotAdmin           = errors.New("not an admin")
	ErrBusy               = errors.New("resource is busy, retry later")
	ErrInvalidExecContext = errors.New("invalid execution context")
)
