package emitter

import "context"

type eventEmitter[K comparable, V any] interface {
	// On registers one or more listeners for the given event.
	On(event K, listeners ...Listener[V]) error

	// Emit dispatches data to every listener of the event and waits until
	// all of them have settled.
	Emit(ctx context.Context, event K, data V) ([]any, error)

	// EmitSync dispatches data to every listener of the event on the calling
	// goroutine.
	EmitSync(ctx context.Context, event K, data V) ([]any, error)

	// RemoveListener removes every registration equal to the given listener.
	RemoveListener(event K, listener Listener[V])

	// RemoveAllListeners drops the whole listener list of the given event.
	RemoveAllListeners(event K)

	// Clear empties the emitter entirely.
	Clear()
}

// NoopEmitter discards registrations and emissions. Useful for embedders
// that want eventing switched off without branching at every call site.
type NoopEmitter[K comparable, V any] struct{}

var _ eventEmitter[string, int] = (*Emitter[string, int])(nil)

var _ eventEmitter[string, int] = NoopEmitter[string, int]{}

func (NoopEmitter[K, V]) On(K, ...Listener[V]) error { return nil }

func (NoopEmitter[K, V]) Emit(context.Context, K, V) ([]any, error) { return nil, nil }

func (NoopEmitter[K, V]) EmitSync(context.Context, K, V) ([]any, error) { return nil, nil }

func (NoopEmitter[K, V]) RemoveListener(K, Listener[V]) {}

func (NoopEmitter[K, V]) RemoveAllListeners(K) {}

func (NoopEmitter[K, V]) Clear() {}
