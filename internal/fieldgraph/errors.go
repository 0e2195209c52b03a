package fieldgraph

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateField is returned when adding a field that already exists
	ErrDuplicateField = errors.New("field with this id already exists")

	// ErrFieldNotFound is returned when referencing a non-existent field
	ErrFieldNotFound = errors.New("field not found")

	// ErrUnknownParent is returned when a field names a parent that was not registered first
	ErrUnknownParent = errors.New("parent field not registered")

	// ErrUnknownFilterSource is returned when a filter references an unregistered field
	ErrUnknownFilterSource = errors.New("filter source not registered")

	// ErrFilterNotAncestor is returned when a filter source is not on the field's parent chain
	ErrFilterNotAncestor = errors.New("filter source is not an ancestor of the field")

	// ErrRootIsDependent is returned when the root field declares a parent or filters
	ErrRootIsDependent = errors.New("root field cannot depend on anything")

	// ErrMissingOperation is returned when a dependent field has no lookup operation
	ErrMissingOperation = errors.New("dependent field must name a lookup operation")
)

// ValidationError reports a problem with a field declaration.
type ValidationError struct {
	// Op is the operation that failed
	Op string
	// Field is the id of the field involved (if any)
	Field string
	// Err is the underlying error
	Err error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("graph validation failed: %s: field '%s': %v", e.Op, e.Field, e.Err)
	}
	return fmt.Sprintf("graph validation failed: %s: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a new ValidationError
func NewValidationError(op, field string, err error) error {
	return &ValidationError{
		Op:    op,
		Field: field,
		Err:   err,
	}
}
