package recipe

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the gateway, dispatcher and catalog.
var (
	// ErrInvalidRecipe marks a local validation failure. Such errors never
	// reach the gateway.
	ErrInvalidRecipe = errors.New("invalid recipe")

	// ErrNotFound marks an id-keyed operation on a missing record.
	ErrNotFound = errors.New("recipe not found")
)

// ValidationError describes why a recipe failed local validation.
// It matches ErrInvalidRecipe under errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrInvalidRecipe, e.Field, e.Message)
}

// Is reports ErrInvalidRecipe as the error's kind.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRecipe
}

// PersistenceError wraps an underlying storage or codec failure.
// The original error is kept intact and reachable via errors.Unwrap.
type PersistenceError struct {
	// Op names the failed operation (e.g. "create", "decode").
	Op string

	// Err is the original failure.
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// NewPersistenceError wraps err as a PersistenceError for op.
// Returns nil if err is nil.
func NewPersistenceError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceError{Op: op, Err: err}
}

// IsPersistence returns true if err is or wraps a PersistenceError.
func IsPersistence(err error) bool {
	var pe *PersistenceError
	return errors.As(err, &pe)
}

// IsNotFound returns true if err is or wraps ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalid returns true if err is or wraps ErrInvalidRecipe.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidRecipe)
}
