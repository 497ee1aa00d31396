package room

import "errors"

var (
	ErrRoomNotFound   = errors.New("room not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrNotHost        = errors.New("only the host can perform this action")
	ErrNoActivity     = errors.New("no activity running")
	ErrWrongActivity  = errors.New("a different activity is running")
	ErrOptionNotFound = errors.New("option not found")
	ErrSpinNotIdle    = errors.New("wheel is not idle")
)
