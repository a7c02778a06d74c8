package emitter

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type mockListener struct {
	mock.Mock

	tapInvoke func()
}

func (m *mockListener) Invoke(ctx context.Context, data any) (any, error) {
	if m.tapInvoke != nil {
		m.tapInvoke()
	}
	args := m.Called(ctx, data)
	return args.Get(0), args.Error(1)
}

func (m *mockListener) listener() Listener[any] {
	return m.Invoke
}
