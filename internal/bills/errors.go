package bills

import "errors"

var (
	// ErrRoomNotFound is returned when the requested room does not exist.
	ErrRoomNotFound = errors.New("room not found")
	// ErrNoBoarders is returned when a room has no boarders to bill.
	ErrNoBoarders = errors.New("no boarders found for this room")
	// ErrBillNotFound is returned when a bill id does not exist.
	ErrBillNotFound = errors.New("bill not found")
)
