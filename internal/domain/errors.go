package domain

import (
	"errors"
	"fmt"
)

var (
	ErrShapeMismatch        = errors.New("shape mismatch")
	ErrUnknownColumnType    = errors.New("unknown column type")
	ErrInvalidDistribution  = errors.New("invalid distribution")
	ErrInvalidParameter     = errors.New("invalid parameter")
	ErrMissingCategories    = errors.New("missing categories")
	ErrColumnLengthMismatch = errors.New("column length mismatch")
)

// SpecError reports which column a validation failure belongs to. It
// unwraps to one of the Err* kinds above.
type SpecError struct {
	Kind   error
	Column string
	Detail string
}

func (e *SpecError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%v: %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("%v: column %q: %s", e.Kind, e.Column, e.Detail)
}

func (e *SpecError) Unwrap() error { return e.Kind }

func NewSpecError(kind error, column, format string, args ...any) *SpecError {
	return &SpecError{Kind: kind, Column: column, Detail: fmt.Sprintf(format, args...)}
}

// IsSpecError reports whether err is a caller-facing validation failure, as
// opposed to an infrastructure error.
func IsSpecError(err error) bool {
	var se *SpecError
	return errors.As(err, &se)
}
