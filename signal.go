package emitter

import (
	"context"
	"sync/atomic"
)

// unit is the implicit key of the single-channel variant.
type unit = struct{}

// Signal is the single-channel counterpart of Emitter: one ordered listener
// list, one global listener cap, no event names. It shares the Emitter
// dispatch core, instantiated with the unit key.
type Signal[V any] struct {
	reg *registry[unit, V]
}

// NewSignal creates an empty Signal.
func NewSignal[V any](opts ...Option) *Signal[V] {
	cfg := newConfig(opts...)
	return &Signal[V]{
		reg: newRegistry[unit, V](cfg.maxListeners, cfg.logger),
	}
}

// On registers one or more listeners after any already registered,
// preserving their relative order. All-or-nothing against the global cap:
// a rejected group registers nothing and returns ErrLimitExceeded.
func (s *Signal[V]) On(listeners ...Listener[V]) error {
	return s.reg.add(unit{}, listeners...)
}

// Once registers a listener that removes itself after its first invocation.
func (s *Signal[V]) Once(listener Listener[V]) error {
	if listener == nil {
		return nil
	}

	var fired atomic.Bool
	// The wrapper keeps the original listener's identity so that
	// RemoveListener(listener) also detaches a pending one-shot.
	h := s.reg.newHandler(listener)
	h.fn = func(ctx context.Context, data V) (any, error) {
		if !fired.CompareAndSwap(false, true) {
			return nil, nil
		}
		s.reg.removeID(unit{}, h.id)
		return listener(ctx, data)
	}
	return s.reg.insert(unit{}, h)
}

// RemoveListener removes every registration equal to the given listener.
func (s *Signal[V]) RemoveListener(listener Listener[V]) {
	s.reg.removeFn(unit{}, listener)
}

// RemoveAllListeners drops the whole listener list.
func (s *Signal[V]) RemoveAllListeners() {
	s.reg.removeAll(unit{})
}

// Clear empties the signal, cap included.
func (s *Signal[V]) Clear() {
	s.reg.clear()
}

// Listeners returns a snapshot of the current listeners in registration
// order.
func (s *Signal[V]) Listeners() []Listener[V] {
	hs := s.reg.snapshot(unit{})
	out := make([]Listener[V], 0, len(hs))
	for _, h := range hs {
		out = append(out, h.fn)
	}
	return out
}

// Count returns the number of currently registered listeners.
func (s *Signal[V]) Count() int {
	return s.reg.count(unit{})
}

// SetLimit caps how many listeners may be simultaneously registered. Zero or
// negative means unlimited.
func (s *Signal[V]) SetLimit(max int) {
	s.reg.setLimit(unit{}, max)
}

// Limit returns the effective listener cap, 0 meaning unlimited.
func (s *Signal[V]) Limit() int {
	return s.reg.limit(unit{})
}

// Emit dispatches data to every listener and waits until all of them have
// settled, returning their results in registration order. Any failure fails
// the whole dispatch with a ListenerError wrapping the first one.
func (s *Signal[V]) Emit(ctx context.Context, data V) ([]any, error) {
	return s.reg.dispatch(ctx, unit{}, data)
}

// EmitSync dispatches data to every listener on the calling goroutine, in
// registration order, returning their immediate results. The first error
// propagates directly and aborts the remaining invocations.
func (s *Signal[V]) EmitSync(ctx context.Context, data V) ([]any, error) {
	return s.reg.dispatchSync(ctx, unit{}, data)
}
