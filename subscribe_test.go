package emitter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscribeBuffersBetweenPulls(t *testing.T) {
	e := New[string, int]()

	sub, err := e.Subscribe("x")
	require.NoError(t, err)
	defer sub.Close()

	ctx := context.Background()
	_, err = e.EmitSync(ctx, "x", 1)
	require.NoError(t, err)
	_, err = e.EmitSync(ctx, "x", 2)
	require.NoError(t, err)

	// Both emissions arrive, in order, even though nobody was pulling yet.
	assert.Equal(t, 1, pull(t, sub))
	assert.Equal(t, 2, pull(t, sub))
}

func TestSubscribeCloseDetachesListener(t *testing.T) {
	e := New[string, int]()

	sub, err := e.Subscribe("x")
	require.NoError(t, err)
	require.Equal(t, 1, e.Count("x"))

	sub.Close()
	sub.Close() // idempotent
	assert.Zero(t, e.Count("x"))

	// The output channel is closed once the pump drains out.
	require.Eventually(t, func() bool {
		select {
		case _, ok := <-sub.C():
			return !ok
		default:
			return false
		}
	}, time.Second, time.Millisecond)
}

func TestSubscribeCountsAgainstLimit(t *testing.T) {
	e := New[string, int]()
	e.SetLimit("x", 1)

	sub, err := e.Subscribe("x")
	require.NoError(t, err)
	defer sub.Close()

	_, err = e.Subscribe("x")
	require.ErrorIs(t, err, ErrLimitExceeded)
}

func TestListenYieldsEmissionsInOrder(t *testing.T) {
	e := New[string, int]()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan []int, 1)
	go func() {
		var seen []int
		for data := range e.Listen(ctx, "x") {
			seen = append(seen, data)
			if len(seen) == 2 {
				break
			}
		}
		got <- seen
	}()

	require.Eventually(t, func() bool { return e.Count("x") == 1 },
		time.Second, time.Millisecond)

	_, err := e.EmitSync(ctx, "x", 1)
	require.NoError(t, err)
	_, err = e.EmitSync(ctx, "x", 2)
	require.NoError(t, err)

	select {
	case seen := <-got:
		assert.Equal(t, []int{1, 2}, seen)
	case <-time.After(time.Second):
		t.Fatal("iteration did not observe both emissions")
	}

	// Breaking out of the range tears the subscription down.
	require.Eventually(t, func() bool { return e.Count("x") == 0 },
		time.Second, time.Millisecond)
}

func TestListenStopsWhenContextDone(t *testing.T) {
	e := New[string, int]()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		for range e.Listen(ctx, "x") {
			t.Error("unexpected emission")
		}
	}()

	require.Eventually(t, func() bool { return e.Count("x") == 1 },
		time.Second, time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("iteration did not stop on context cancellation")
	}
	require.Eventually(t, func() bool { return e.Count("x") == 0 },
		time.Second, time.Millisecond)
}

func TestSignalSubscribe(t *testing.T) {
	s := NewSignal[int]()

	sub, err := s.Subscribe()
	require.NoError(t, err)
	defer sub.Close()

	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		_, err := s.EmitSync(ctx, i*10)
		require.NoError(t, err)
	}

	assert.Equal(t, 10, pull(t, sub))
	assert.Equal(t, 20, pull(t, sub))
	assert.Equal(t, 30, pull(t, sub))
}

func pull[V any](t *testing.T, sub *Subscription[V]) V {
	t.Helper()
	select {
	case data := <-sub.C():
		return data
	case <-time.After(time.Second):
		t.Fatal("no emission within a second")
		panic("unreachable")
	}
}
