package caddy

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is returned when a subdomain or port cannot be turned into
// labels. The allocator's counter is never advanced for a rejected call.
var ErrInvalidInput = errors.New("invalid input")

// InputError describes which argument was rejected and why.
type InputError struct {
	Field   string // "subdomain" or "port"
	Value   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("%s %q: %s", e.Field, e.Value, e.Message)
}

// Unwrap allows errors.Is(err, ErrInvalidInput).
func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}

func newInputError(field, value, message string) *InputError {
	return &InputError{Field: field, Value: value, Message: message}
}
