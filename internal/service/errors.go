package service

import (
	"errors"
	"fmt"
)

// ErrInvalid marks request errors that were rejected before (or instead of)
// touching the store. Handlers map it to HTTP 400.
var ErrInvalid = errors.New("invalid request")

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrInvalid)
}
