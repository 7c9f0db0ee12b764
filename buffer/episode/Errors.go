package episode

import (
	"errors"
	"fmt"
)

// InvalidStateError reports that an operation was called at a point in
// the buffering lifecycle where it is not allowed, for example before
// the batch size is known or on a slot that has no buffer. It signals
// an integration bug in the caller and is not recoverable.
type InvalidStateError struct {
	Op  string
	Err error
}

// Error satisfies the error interface
func (e *InvalidStateError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error
func (e *InvalidStateError) Unwrap() error {
	return e.Err
}

// ErrBatchSizeUnset is returned when buffers are used before the batch
// size has been fixed.
var ErrBatchSizeUnset = errors.New("batch size is not yet known")

// NewInvalidState returns a new *InvalidStateError
func NewInvalidState(op, format string, args ...interface{}) error {
	return &InvalidStateError{Op: op, Err: fmt.Errorf(format, args...)}
}

// IsInvalidState returns whether or not an error reports an invalid
// buffering state.
func IsInvalidState(err error) bool {
	var stateErr *InvalidStateError
	return errors.As(err, &stateErr)
}
