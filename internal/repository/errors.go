package repository

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
	// ErrOverlap is raised by storage when two confirmed bookings of a space would intersect.
	ErrOverlap = errors.New("overlapping confirmed booking")
	// ErrSerialization means the transaction lost a race and was aborted by the database.
	ErrSerialization = errors.New("serialization failure")
)
