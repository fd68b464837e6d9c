package errors

import (
	"errors"
	"fmt"
)

// Domain error taxonomy. Services return these (or wrap them); the HTTP
// layer maps them to status codes via Status(). Keeping the sentinels here
// keeps service code free of transport concerns.
var (
	// ErrNotFound covers unknown matches, users and media, and actors that
	// are not a party to the match they act on.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition is returned when an accept/reject is attempted
	// on a match whose derived status is already terminal.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrPermissionDenied gates user messages on matches that are not yet
	// in the matched state.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrUpstreamTimeout marks vector-search or embedding lookups that ran
	// out of time. It is recovered internally via the overlap-only fallback
	// and must never reach a caller.
	ErrUpstreamTimeout = errors.New("upstream timeout")
)

// ValidationError reports malformed input (out-of-range rating, unknown
// action, bad identifiers).
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Validation builds a ValidationError with a formatted message.
func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// NotFound wraps ErrNotFound with context about what was missing.
func NotFound(what string) error {
	return fmt.Errorf("%s: %w", what, ErrNotFound)
}
