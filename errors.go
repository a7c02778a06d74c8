package emitter

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrLimitExceeded = errors.New("listener limit exceeded")
	ErrTimeout       = errors.New("timed out waiting for emission")
)

// ListenerError reports a failed asynchronous dispatch. It wraps the first
// listener failure encountered; the remaining listeners of the same dispatch
// run to completion but their results are discarded.
type ListenerError struct {
	err error
}

func (e ListenerError) Error() string {
	return fmt.Sprintf("listener failed during dispatch: %s", e.err)
}

func (e ListenerError) Unwrap() error { return e.err }

func WrapListenerError(err error) *ListenerError {
	if err == nil {
		return nil
	}
	return &ListenerError{err: err}
}
