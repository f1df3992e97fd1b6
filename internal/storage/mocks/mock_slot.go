package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockSlot struct {
	mock.Mock
}

func (m *MockSlot) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockSlot) Set(ctx context.Context, key string, value []byte) error {
	args := m.Called(ctx, key, value)
	return args.Error(0)
}

func (m *MockSlot) PingContext(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
