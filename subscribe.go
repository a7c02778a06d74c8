package emitter

import (
	"context"
	"iter"
	"sync"
)

// Subscription is a live feed of emissions for one event. Payloads arrive on
// C in emission order, buffered without bound in between pulls, so emitters
// never block on a slow consumer. Close detaches the underlying listener;
// after Close, C is closed and buffered payloads not yet pulled are dropped.
type Subscription[V any] struct {
	out  chan V
	wake chan struct{}
	done chan struct{}

	mu    sync.Mutex
	queue []V

	detach    func()
	closeOnce sync.Once
}

// C returns the channel emissions are delivered on. It is closed when the
// subscription is closed.
func (s *Subscription[V]) C() <-chan V {
	return s.out
}

// Close detaches the subscription's listener from the registry. Idempotent.
func (s *Subscription[V]) Close() {
	s.closeOnce.Do(func() {
		s.detach()
		close(s.done)
	})
}

// push enqueues one payload and wakes the pump. Runs inside dispatch, so it
// must never block.
func (s *Subscription[V]) push(data V) {
	s.mu.Lock()
	s.queue = append(s.queue, data)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// pump drains the queue into the output channel until the subscription is
// closed.
func (s *Subscription[V]) pump() {
	defer close(s.out)

	for {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, data := range batch {
			select {
			case s.out <- data:
			case <-s.done:
				return
			}
		}

		select {
		case <-s.wake:
		case <-s.done:
			return
		}
	}
}

func (r *registry[K, V]) subscribe(key K) (*Subscription[V], error) {
	sub := &Subscription[V]{
		out:  make(chan V),
		wake: make(chan struct{}, 1),
		done: make(chan struct{}),
	}

	h := r.newHandler(func(_ context.Context, data V) (any, error) {
		sub.push(data)
		return nil, nil
	})
	if err := r.insert(key, h); err != nil {
		return nil, err
	}
	sub.detach = func() {
		r.removeID(key, h.id)
		r.logger.Debugf("subscription on %v closed", key)
	}

	go sub.pump()
	return sub, nil
}

// listen adapts a subscription into an infinite lazy sequence. Abandoning
// the range (break, return, ctx done) closes the subscription, leaving no
// listener behind.
func (r *registry[K, V]) listen(ctx context.Context, key K) iter.Seq[V] {
	return func(yield func(V) bool) {
		sub, err := r.subscribe(key)
		if err != nil {
			return
		}
		defer sub.Close()

		for {
			select {
			case data, ok := <-sub.C():
				if !ok || !yield(data) {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}
}

// Subscribe attaches a channel-backed subscription to the event. The
// subscription counts against the event's listener cap. The caller owns the
// returned Subscription and must Close it to detach.
func (e *Emitter[K, V]) Subscribe(event K) (*Subscription[V], error) {
	return e.reg.subscribe(event)
}

// Listen returns an infinite lazy sequence over the event's emissions, in
// order and without loss between pulls. The sequence ends when ctx is done
// or the consumer breaks out of the range; either way the backing listener
// is detached. It is not restartable: ranging again starts a fresh
// subscription that only observes later emissions.
func (e *Emitter[K, V]) Listen(ctx context.Context, event K) iter.Seq[V] {
	return e.reg.listen(ctx, event)
}

// Subscribe attaches a channel-backed subscription. See Emitter.Subscribe.
func (s *Signal[V]) Subscribe() (*Subscription[V], error) {
	return s.reg.subscribe(unit{})
}

// Listen returns an infinite lazy sequence over the signal's emissions. See
// Emitter.Listen.
func (s *Signal[V]) Listen(ctx context.Context) iter.Seq[V] {
	return s.reg.listen(ctx, unit{})
}
