package ledger

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation matches every *ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when an id does not resolve.
	ErrNotFound = errors.New("not found")

	// ErrBlockedByActiveDebt is returned when deleting a person who still
	// has unpaid debts.
	ErrBlockedByActiveDebt = errors.New("person has unpaid debts")
)

// ValidationError reports a missing or invalid field. The mutation that
// produced it was not applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) match.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
