package suggestions

import "errors"

var (
	ErrLocationNotFound   = errors.New("location not found")
	ErrSuggestionNotFound = errors.New("suggestion not found")
	ErrForbidden          = errors.New("not yours")
	ErrInvalidInput       = errors.New("invalid input")
)
