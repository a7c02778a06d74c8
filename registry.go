package emitter

import (
	"context"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Listener is a callable registered for an event. It receives the emitted
// payload and returns a result collected by dispatch. A non-nil error aborts
// a synchronous dispatch immediately and fails an asynchronous dispatch once
// every listener has settled.
type Listener[V any] func(ctx context.Context, data V) (any, error)

// handler pairs a listener with its removal identities: id is unique per
// registration and used by internal one-shot cleanup, ptr is the listener's
// code pointer and used by value-based removal.
type handler[V any] struct {
	id  uint64
	fn  Listener[V]
	ptr uintptr
}

// registry is the dispatch core shared by Emitter and Signal. It maps events
// (of type K) to ordered listener lists and enforces optional per-event
// listener caps. The single-channel variant instantiates it with the unit
// key.
//
// All mutation happens under one mutex. Dispatch releases the lock before
// invoking anything: it operates on a point-in-time copy of the listener
// list, so a listener may register or remove listeners (including itself)
// without corrupting the in-flight invocation list.
type registry[K comparable, V any] struct {
	mu       sync.Mutex
	handlers map[K][]handler[V]
	limits   map[K]int
	maxDef   int
	nextID   atomic.Uint64
	logger   logger
}

func newRegistry[K comparable, V any](maxDef int, logger logger) *registry[K, V] {
	return &registry[K, V]{
		handlers: make(map[K][]handler[V]),
		limits:   make(map[K]int),
		maxDef:   maxDef,
		logger:   logger,
	}
}

func (r *registry[K, V]) newHandler(fn Listener[V]) handler[V] {
	return handler[V]{
		id:  r.nextID.Add(1),
		fn:  fn,
		ptr: reflect.ValueOf(fn).Pointer(),
	}
}

// limitLocked returns the effective cap for an event, 0 meaning unlimited.
// Callers must hold r.mu.
func (r *registry[K, V]) limitLocked(key K) int {
	if max, ok := r.limits[key]; ok {
		return max
	}
	return r.maxDef
}

// insert appends a group of handlers for key, preserving their relative
// order after any existing listeners. The add is all-or-nothing: if the
// prospective count would exceed the event's cap, nothing is added and
// ErrLimitExceeded is returned.
func (r *registry[K, V]) insert(key K, hs ...handler[V]) error {
	if len(hs) == 0 {
		return nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.handlers[key]
	if max := r.limitLocked(key); max > 0 && len(cur)+len(hs) > max {
		return errors.Wrapf(ErrLimitExceeded,
			"%d listeners registered, cap is %d", len(cur), max)
	}

	r.handlers[key] = append(cur, hs...)
	return nil
}

func (r *registry[K, V]) add(key K, fns ...Listener[V]) error {
	hs := make([]handler[V], 0, len(fns))
	for _, fn := range fns {
		hs = append(hs, r.newHandler(fn))
	}
	return r.insert(key, hs...)
}

// removeFn removes every handler whose listener equals fn. Equality is code
// pointer equality: removing a listener value removes all occurrences equal
// to it. No-op if absent.
func (r *registry[K, V]) removeFn(key K, fn Listener[V]) {
	if fn == nil {
		return
	}
	ptr := reflect.ValueOf(fn).Pointer()

	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.handlers[key]
	next := cur[:0]
	for _, h := range cur {
		if h.ptr != ptr {
			next = append(next, h)
		}
	}
	r.storeLocked(key, next)
}

// removeID removes the single handler with the given registration id.
// Idempotent: losing the race with another remover is fine.
func (r *registry[K, V]) removeID(key K, id uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.handlers[key]
	for i, h := range cur {
		if h.id == id {
			r.storeLocked(key, append(cur[:i], cur[i+1:]...))
			return
		}
	}
}

func (r *registry[K, V]) storeLocked(key K, hs []handler[V]) {
	if len(hs) == 0 {
		delete(r.handlers, key)
		return
	}
	r.handlers[key] = hs
}

// removeAll deletes the whole entry for key. No-op if absent.
func (r *registry[K, V]) removeAll(key K) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.handlers, key)
}

// clear empties the registry entirely, caps included.
func (r *registry[K, V]) clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = make(map[K][]handler[V])
	r.limits = make(map[K]int)
}

// snapshot returns a point-in-time copy of the handlers for key, never the
// live slice.
func (r *registry[K, V]) snapshot(key K) []handler[V] {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.handlers[key]
	if len(cur) == 0 {
		return nil
	}
	out := make([]handler[V], len(cur))
	copy(out, cur)
	return out
}

func (r *registry[K, V]) count(key K) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers[key])
}

// setLimit sets the cap for an event. An explicit zero (or negative) means
// unlimited and overrides the constructor default.
func (r *registry[K, V]) setLimit(key K, max int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if max < 0 {
		max = 0
	}
	r.limits[key] = max
}

func (r *registry[K, V]) limit(key K) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limitLocked(key)
}

func (r *registry[K, V]) keys() []K {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]K, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	return out
}

func (r *registry[K, V]) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handlers)
}

// dispatchSync invokes every listener registered for key at call time, in
// registration order, collecting their immediate results. The first listener
// error propagates directly to the caller and aborts the remaining
// invocations; no results are returned in that case.
func (r *registry[K, V]) dispatchSync(ctx context.Context, key K, data V) ([]any, error) {
	hs := r.snapshot(key)
	if len(hs) == 0 {
		return nil, nil
	}

	results := make([]any, 0, len(hs))
	for _, h := range hs {
		out, err := h.fn(ctx, data)
		if err != nil {
			return nil, err
		}
		results = append(results, out)
	}
	return results, nil
}

// dispatch invokes every listener registered for key at call time and waits
// until all of them have settled. Listeners are started in registration
// order and results are returned in that same order. The join is
// all-or-nothing: any listener failure fails the whole dispatch with a
// ListenerError wrapping the first failure encountered, while the remaining
// listeners still run to completion.
func (r *registry[K, V]) dispatch(ctx context.Context, key K, data V) ([]any, error) {
	hs := r.snapshot(key)
	if len(hs) == 0 {
		return nil, nil
	}

	results := make([]any, len(hs))

	// Plain errgroup.Group on purpose: no derived context, so one failing
	// listener does not cancel its siblings.
	var g errgroup.Group
	for i, h := range hs {
		g.Go(func() error {
			out, err := h.fn(ctx, data)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, WrapListenerError(err)
	}
	return results, nil
}

// wait registers a one-shot listener for key and blocks until the next
// emission or until ctx is done, whichever comes first. The one-shot removes
// itself on delivery; when ctx wins the race it is removed here, so a timed
// out wait never leaves a dangling registration behind.
func (r *registry[K, V]) wait(ctx context.Context, key K) (V, error) {
	var (
		zero  V
		fired atomic.Bool
		got   = make(chan V, 1)
	)

	h := r.newHandler(nil)
	h.fn = func(_ context.Context, data V) (any, error) {
		if fired.CompareAndSwap(false, true) {
			r.removeID(key, h.id)
			got <- data
		}
		return nil, nil
	}
	h.ptr = reflect.ValueOf(h.fn).Pointer()

	if err := r.insert(key, h); err != nil {
		return zero, err
	}

	select {
	case data := <-got:
		return data, nil
	case <-ctx.Done():
		if !fired.CompareAndSwap(false, true) {
			// An emission won the race while ctx fired, deliver it.
			return <-got, nil
		}
		r.removeID(key, h.id)
		r.logger.Debugf("wait on %v abandoned: %s", key, ctx.Err())
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, ErrTimeout
		}
		return zero, ctx.Err()
	}
}
