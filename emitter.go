package emitter

import (
	"context"
	"sync/atomic"
)

// Emitter is a typed publish/subscribe emitter. It maps events (of type K)
// to ordered listener lists and dispatches emissions to every listener of an
// event, either synchronously or as an all-must-succeed asynchronous join.
//
// One Emitter instance carries one payload type V for all of its events.
// Applications that need distinct payload types per event instantiate one
// emitter per type, or pick an interface payload.
//
// All methods are safe for concurrent use. A listener may register or remove
// listeners, including itself, from inside its own invocation; the dispatch
// that is already in flight keeps operating on the listener list captured
// when it started.
type Emitter[K comparable, V any] struct {
	reg *registry[K, V]
}

// New creates an empty Emitter.
func New[K comparable, V any](opts ...Option) *Emitter[K, V] {
	cfg := newConfig(opts...)
	return &Emitter[K, V]{
		reg: newRegistry[K, V](cfg.maxListeners, cfg.logger),
	}
}

// On registers one or more listeners for the given event, after any already
// registered, preserving their relative order. The add is all-or-nothing:
// if it would push the event past its listener cap, nothing is registered
// and ErrLimitExceeded is returned.
func (e *Emitter[K, V]) On(event K, listeners ...Listener[V]) error {
	return e.reg.add(event, listeners...)
}

// Once registers a listener that removes itself after its first invocation.
// Later emissions of the same event do not reach it.
func (e *Emitter[K, V]) Once(event K, listener Listener[V]) error {
	if listener == nil {
		return nil
	}

	var fired atomic.Bool
	// The wrapper keeps the original listener's identity so that
	// RemoveListener(event, listener) also detaches a pending one-shot.
	h := e.reg.newHandler(listener)
	h.fn = func(ctx context.Context, data V) (any, error) {
		if !fired.CompareAndSwap(false, true) {
			return nil, nil
		}
		e.reg.removeID(event, h.id)
		return listener(ctx, data)
	}
	return e.reg.insert(event, h)
}

// RemoveListener removes every registration equal to the given listener from
// the event. Listener equality is function identity, so removing a listener
// registered twice removes both occurrences. No-op if absent.
func (e *Emitter[K, V]) RemoveListener(event K, listener Listener[V]) {
	e.reg.removeFn(event, listener)
}

// RemoveAllListeners drops the whole listener list of the given event.
func (e *Emitter[K, V]) RemoveAllListeners(event K) {
	e.reg.removeAll(event)
}

// Clear empties the emitter entirely: every event, every listener, every
// per-event cap.
func (e *Emitter[K, V]) Clear() {
	e.reg.clear()
}

// Listeners returns a snapshot of the listeners currently registered for the
// event, in registration order. Mutating the returned slice does not affect
// the emitter.
func (e *Emitter[K, V]) Listeners(event K) []Listener[V] {
	hs := e.reg.snapshot(event)
	out := make([]Listener[V], 0, len(hs))
	for _, h := range hs {
		out = append(out, h.fn)
	}
	return out
}

// Count returns the number of listeners currently registered for the event.
func (e *Emitter[K, V]) Count(event K) int {
	return e.reg.count(event)
}

// EventNames returns the events that currently have listeners registered.
func (e *Emitter[K, V]) EventNames() []K {
	return e.reg.keys()
}

// Len returns the number of events that currently have listeners.
func (e *Emitter[K, V]) Len() int {
	return e.reg.len()
}

// SetLimit caps how many listeners may be simultaneously registered for the
// event, overriding the constructor default. Zero or negative removes the
// per-event cap.
func (e *Emitter[K, V]) SetLimit(event K, max int) {
	e.reg.setLimit(event, max)
}

// Limit returns the effective listener cap for the event, 0 meaning
// unlimited.
func (e *Emitter[K, V]) Limit(event K) int {
	return e.reg.limit(event)
}

// Emit dispatches data to every listener of the event and waits until all of
// them have settled, returning their results in registration order. Any
// listener failure fails the whole dispatch with a ListenerError wrapping
// the first failure; the remaining listeners still run to completion but
// their results are discarded.
func (e *Emitter[K, V]) Emit(ctx context.Context, event K, data V) ([]any, error) {
	return e.reg.dispatch(ctx, event, data)
}

// EmitSync dispatches data to every listener of the event on the calling
// goroutine, in registration order, returning their immediate results. The
// first listener error propagates directly and aborts the remaining
// invocations.
func (e *Emitter[K, V]) EmitSync(ctx context.Context, event K, data V) ([]any, error) {
	return e.reg.dispatchSync(ctx, event, data)
}
