// Package errors defines the error kinds surfaced by the dump engine.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors matched with errors.Is.
var (
	// ErrInvalidArgument is returned for nil data, nil tables and unusable names.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidType is returned when the element type of a field cannot be resolved
	// to a storage type.
	ErrInvalidType = errors.New("invalid type")

	// ErrInvalidOperation is returned when a schema is requested for a type that
	// cannot be materialized as a concrete table.
	ErrInvalidOperation = errors.New("invalid operation")
)

// ArgumentError reports a rejected argument.
type ArgumentError struct {
	Name    string
	Message string
}

func (e *ArgumentError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("invalid argument %q", e.Name)
	}
	return fmt.Sprintf("invalid argument %q: %s", e.Name, e.Message)
}

func (e *ArgumentError) Is(target error) bool {
	return target == ErrInvalidArgument
}

// TypeError reports a type that does not resolve to what was expected.
type TypeError struct {
	Type     string
	Expected string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("type %s cannot be used as %s", e.Type, e.Expected)
}

func (e *TypeError) Is(target error) bool {
	return target == ErrInvalidType
}

// OperationError reports an operation that is not valid for its input.
type OperationError struct {
	Op      string
	Message string
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *OperationError) Is(target error) bool {
	return target == ErrInvalidOperation
}

// NilArgument returns an ArgumentError for a missing reference.
func NilArgument(name string) error {
	return &ArgumentError{Name: name, Message: "must not be nil"}
}
