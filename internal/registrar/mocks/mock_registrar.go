package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"provledger/internal/registrar"
)

// MockRegistrar is a mock implementation of registrar.Registrar.
type MockRegistrar struct {
	mock.Mock
}

func (m *MockRegistrar) RegisterDataset(ctx context.Context, ds registrar.Dataset) (string, error) {
	args := m.Called(ctx, ds)
	return args.String(0), args.Error(1)
}
