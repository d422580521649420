package fleet

import (
	"errors"
	"fmt"
	"strconv"

	"robot-fleet-backend/internal/store"
)

// ValidationError reports an input that was rejected before reaching the
// store.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NotFoundError reports a missing entity.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// UniquenessError reports a value that must be unique and is already taken.
type UniquenessError struct {
	Entity string
	Field  string
	Value  string
}

func (e *UniquenessError) Error() string {
	return fmt.Sprintf("%s with %s %q already exists", e.Entity, e.Field, e.Value)
}

// ReferentialIntegrityError reports a write that referenced a row which no
// longer exists.
type ReferentialIntegrityError struct {
	Entity string
	Err    error
}

func (e *ReferentialIntegrityError) Error() string {
	return fmt.Sprintf("%s references a missing record", e.Entity)
}

func (e *ReferentialIntegrityError) Unwrap() error { return e.Err }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func notFound(entity string, id int64) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: strconv.FormatInt(id, 10)}
}

// fromStore maps store sentinels onto error kinds. Unknown errors pass
// through unchanged.
func fromStore(err error, entity string, id int64) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, store.ErrNotFound):
		return notFound(entity, id)
	case errors.Is(err, store.ErrForeignKey):
		return &ReferentialIntegrityError{Entity: entity, Err: err}
	case errors.Is(err, store.ErrDuplicate):
		return &UniquenessError{Entity: entity, Field: "key", Value: strconv.FormatInt(id, 10)}
	default:
		return err
	}
}
