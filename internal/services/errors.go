package services

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedRounds rejects cadence lengths that are valid input but
	// have no plan yet.
	ErrUnsupportedRounds = errors.New("MVP supports rounds=3 only for now.")
	// ErrCorruptHistory means stored turns are not a prefix of the plan.
	ErrCorruptHistory = errors.New("debate history does not match cadence")
)

// ValidationError is a request field that failed a check.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
