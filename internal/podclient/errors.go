package podclient

import (
	"errors"
	"fmt"
)

// Validation errors. Requests failing validation are never sent.
var (
	ErrOutOfRange     = errors.New("value out of range")
	ErrInvalidSide    = errors.New("invalid side: must be left or right")
	ErrInvalidPattern = errors.New("invalid alarm pattern")
	ErrInvalidDay     = errors.New("invalid schedule day")
)

// StatusError is returned when the companion server answers with anything but 200 or 204.
type StatusError struct {
	Method string
	Path   string
	Code   int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status code %d", e.Method, e.Path, e.Code)
}

// IsValidation reports whether err was produced by client-side validation.
func IsValidation(err error) bool {
	return errors.Is(err, ErrOutOfRange) ||
		errors.Is(err, ErrInvalidSide) ||
		errors.Is(err, ErrInvalidPattern) ||
		errors.Is(err, ErrInvalidDay)
}
