package executor

import (
	"errors"
	"fmt"
)

// ErrRejected is returned when a task is submitted to an executor that is not
// running (not started or shut down) or whose queue is full.
var ErrRejected = errors.New("executor: task rejected")

// PanicError carries a panic recovered from a task together with the stack of
// the panicking goroutine.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("executor: task panicked: %v", e.Value)
}

// Unwrap exposes the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
