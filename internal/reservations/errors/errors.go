package errors

import "errors"

var (
	ErrNotFound        = errors.New("reservation not found")
	ErrInvalidID       = errors.New("invalid reservation ID format")
	ErrVersionConflict = errors.New("reservation was modified concurrently")
	ErrLockHeld        = errors.New("booking day is locked by another request")
)
