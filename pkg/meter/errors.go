package meter

import (
	"errors"
	"fmt"
)

var (

	// ErrNotConnected is returned when a measurement is requested without
	// an open instrument session
	ErrNotConnected = errors.New("instrument not connected")

	// ErrTimeout is returned when no response line arrives within the
	// configured read timeout
	ErrTimeout = errors.New("instrument read timeout")
)

// MalformedResponseError denotes an instrument response that could not be
// split into at least two comma-separated numeric fields
type MalformedResponseError struct {
	Line string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed instrument response: %q", e.Line)
}
