package portfolio

import (
	"errors"
	"fmt"
)

// State errors: recoverable at the command boundary, rendered to the user as
// guidance, never mutate storage.
var (
	// ErrNoSelection means no edit cursor is set.
	ErrNoSelection = errors.New("no open position selected")
	// ErrInvalidSelection means the cursor points outside the list.
	ErrInvalidSelection = errors.New("invalid selection")
)

// ValidationError reports bad user input, detected before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalidf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// IsUserError reports whether err should be shown to the user as a message
// rather than aborting the command.
func IsUserError(err error) bool {
	var v *ValidationError
	return errors.Is(err, ErrNoSelection) || errors.Is(err, ErrInvalidSelection) || errors.As(err, &v)
}
