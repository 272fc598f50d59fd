package filter

import (
	"errors"
	"fmt"
)

// ErrUnsupportedOperation is returned when a filter cannot perform the requested
// operation, such as evaluating a native SQL filter in memory.
var ErrUnsupportedOperation = errors.New("filter: unsupported operation")

// ErrNotComparable is returned by in-memory evaluation when two values have no ordering.
var ErrNotComparable = errors.New("filter: values are not comparable")

type InvalidColumnError struct {
	Column string
	Reason string
}

func (e InvalidColumnError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("filter: invalid column %q", e.Column)
	}
	return fmt.Sprintf("filter: invalid column %q: %s", e.Column, e.Reason)
}

// ParameterCollisionError is returned when two native filters bind the same
// parameter name to different values.
type ParameterCollisionError struct {
	Name string
}

func (e ParameterCollisionError) Error() string {
	return fmt.Sprintf("filter: parameter %q is bound to conflicting values", e.Name)
}
