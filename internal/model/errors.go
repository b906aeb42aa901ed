package model

import "errors"

var (
	// ErrInvalidInput marks malformed or missing request parameters.
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotFound marks a path that does not exist at the time of the check.
	ErrNotFound = errors.New("not found")
	// ErrInvalidPath marks a path that exists but has the wrong type.
	ErrInvalidPath = errors.New("invalid path")
)

// ErrorKind returns the taxonomy name for err, or "" if it is not one of ours.
func ErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return "InvalidInput"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrInvalidPath):
		return "InvalidPath"
	default:
		return ""
	}
}
