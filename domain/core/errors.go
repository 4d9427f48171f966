package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Not found errors
	ErrNotFound       = errors.New("resource not found")
	ErrTableNotFound  = fmt.Errorf("%w: table", ErrNotFound)
	ErrColumnNotFound = fmt.Errorf("%w: column", ErrNotFound)

	// Validation errors
	ErrValidation   = errors.New("invalid analysis request")
	ErrTypeMismatch = errors.New("column type mismatch")

	// Execution errors
	ErrExecutor = errors.New("query execution failed")
)

// Error constructors with context
func NewMissingFieldError(field string) error {
	return fmt.Errorf("%w: missing required field %q", ErrValidation, field)
}

func NewValidationError(field string, reason string) error {
	return fmt.Errorf("%w: %s: %s", ErrValidation, field, reason)
}

func NewTableNotFoundError(schema, table string) error {
	return fmt.Errorf("%w %s.%s does not exist", ErrTableNotFound, schema, table)
}

func NewColumnNotFoundError(table, column string) error {
	return fmt.Errorf("%w %q does not exist in table %s", ErrColumnNotFound, column, table)
}

func NewTypeMismatchError(column, actualType, wantedClass string) error {
	return fmt.Errorf("%w: column %q has type %s, expected a %s type", ErrTypeMismatch, column, actualType, wantedClass)
}

func NewExecutorError(err error) error {
	return fmt.Errorf("%w: %v", ErrExecutor, err)
}

// Error checking helpers
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrTypeMismatch)
}

func IsTypeMismatchError(err error) bool {
	return errors.Is(err, ErrTypeMismatch)
}

func IsExecutorError(err error) bool {
	return errors.Is(err, ErrExecutor)
}
