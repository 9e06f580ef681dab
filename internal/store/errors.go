package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedSnapshot reports persisted or imported data that failed to
	// parse or did not match the snapshot schema.
	ErrMalformedSnapshot = errors.New("malformed snapshot")

	// ErrDefaultProtected is returned by Dispatch when default protection is
	// on and the action would delete a default folder or list.
	ErrDefaultProtected = errors.New("default entries cannot be deleted")

	ErrValidation = errors.New("invalid action")
)

// ValidationError lists the problems Validate found with one action.
type ValidationError struct {
	Action   string
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Action, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
