package projects

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested project does not exist.
	ErrNotFound = errors.New("projects: not found")
	// ErrTaskNotFound indicates the addressed task is absent from the
	// aggregate. Task identity is load-bearing for task-scoped
	// operations, so a missing task is an error rather than a no-op.
	ErrTaskNotFound = errors.New("projects: task not found")
)

// ValidationError reports a structurally invalid payload. It is
// produced before any collaborator I/O is attempted.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("projects: invalid input: %s", e.Reason)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
