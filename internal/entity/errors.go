package entity

import (
	"errors"

	"eight_sleep_local/internal/podclient"
)

var (
	ErrNotFound     = errors.New("entity not found")
	ErrUnsupported  = errors.New("command not supported by entity")
	ErrInvalidValue = errors.New("invalid value")
)

// IsInvalid reports whether err was caused by bad input rather than the companion server.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidValue) || podclient.IsValidation(err)
}
