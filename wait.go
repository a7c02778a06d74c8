package emitter

import (
	"context"
	"time"
)

// Wait blocks until the next emission of the event and returns its payload.
// Internally it registers a one-shot listener that removes itself on first
// delivery; when ctx is cancelled first, the one-shot is deregistered before
// returning, so an abandoned wait never leaks a registration. A wait
// resolves at most once: later emissions of the same event do not affect it.
//
// The one-shot counts against the event's listener cap; a wait on a full
// event fails with ErrLimitExceeded.
func (e *Emitter[K, V]) Wait(ctx context.Context, event K) (V, error) {
	return e.reg.wait(ctx, event)
}

// WaitTimeout is Wait bounded by a timeout. It fails with ErrTimeout when no
// emission occurs within the window, delivered through the ordinary return
// path like any other failure.
func (e *Emitter[K, V]) WaitTimeout(event K, timeout time.Duration) (V, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return e.reg.wait(ctx, event)
}

// Wait blocks until the next emission and returns its payload. See
// Emitter.Wait for the cleanup and at-most-once guarantees.
func (s *Signal[V]) Wait(ctx context.Context) (V, error) {
	return s.reg.wait(ctx, unit{})
}

// WaitTimeout is Wait bounded by a timeout, failing with ErrTimeout when no
// emission occurs within the window.
func (s *Signal[V]) WaitTimeout(timeout time.Duration) (V, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.reg.wait(ctx, unit{})
}
