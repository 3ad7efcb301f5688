package queue

import (
	"errors"
	"fmt"
)

// ErrConflict is returned when a verify-read shows the document was
// modified by another writer between this call's read and write
var ErrConflict = errors.New("queue was modified by another process during update")

// ConflictError is returned when an operation still conflicts after
// exhausting its retry budget. It wraps the last underlying failure.
type ConflictError struct {
	Attempts int
	Err      error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("operation failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrConflict) match exhausted-retry failures too
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}
