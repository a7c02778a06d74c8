package emitter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalEmit(t *testing.T) {
	s := NewSignal[string]()

	var seen []string
	err := s.On(func(_ context.Context, data string) (any, error) {
		seen = append(seen, data)
		return len(data), nil
	})
	if err != nil {
		t.Fatalf("unexpected error on register: %v", err)
	}

	results, err := s.EmitSync(context.Background(), "hello")
	if err != nil {
		t.Fatalf("unexpected error on emit: %v", err)
	}
	if len(results) != 1 || results[0] != 5 {
		t.Errorf("expected [5], got %v", results)
	}
	if len(seen) != 1 || seen[0] != "hello" {
		t.Errorf("expected to observe [hello], got %v", seen)
	}
}

func TestSignalGlobalLimit(t *testing.T) {
	s := NewSignal[int](WithMaxListeners(2))

	noop := func(_ context.Context, _ int) (any, error) { return nil, nil }

	require.NoError(t, s.On(noop, noop))
	require.ErrorIs(t, s.On(noop), ErrLimitExceeded)
	assert.Equal(t, 2, s.Count())
	assert.Equal(t, 2, s.Limit())
}

func TestSignalRemoveAndClear(t *testing.T) {
	s := NewSignal[int]()

	var calls int
	listener := func(_ context.Context, _ int) (any, error) {
		calls++
		return nil, nil
	}

	require.NoError(t, s.On(listener))
	require.NoError(t, s.On(listener))
	s.RemoveListener(listener)
	assert.Zero(t, s.Count())

	require.NoError(t, s.On(listener))
	s.Clear()
	assert.Zero(t, s.Count())

	_, err := s.Emit(context.Background(), 1)
	require.NoError(t, err)
	assert.Zero(t, calls)
}

func TestSignalOrderMatchesAcrossDispatchModes(t *testing.T) {
	s := NewSignal[int]()

	require.NoError(t, s.On(
		func(_ context.Context, data int) (any, error) { return data + 1, nil },
		func(_ context.Context, data int) (any, error) { return data - 1, nil },
	))

	ctx := context.Background()
	syncResults, err := s.EmitSync(ctx, 10)
	require.NoError(t, err)
	asyncResults, err := s.Emit(ctx, 10)
	require.NoError(t, err)

	assert.Equal(t, []any{11, 9}, syncResults)
	assert.Equal(t, syncResults, asyncResults)
}

func TestSignalOnce(t *testing.T) {
	s := NewSignal[int]()

	var calls int
	require.NoError(t, s.Once(func(_ context.Context, _ int) (any, error) {
		calls++
		return nil, nil
	}))

	ctx := context.Background()
	_, err := s.EmitSync(ctx, 1)
	require.NoError(t, err)
	_, err = s.EmitSync(ctx, 2)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.Zero(t, s.Count())
}
