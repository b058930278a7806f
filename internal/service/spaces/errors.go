package spaces

import "errors"

var (
	ErrSpaceNotFound = errors.New("space not found")
	ErrForbidden     = errors.New("only the space owner can do this")
	ErrInvalidSpace  = errors.New("invalid space")
	ErrInvalidDay    = errors.New("invalid day of week")
)
