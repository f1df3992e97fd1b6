package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"provledger/internal/model"
	"provledger/internal/service"
)

type MockProvenanceService struct {
	mock.Mock
}

func (m *MockProvenanceService) Digest(ctx context.Context, r io.Reader) (*service.DigestResult, error) {
	args := m.Called(ctx, r)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.DigestResult), args.Error(1)
}

func (m *MockProvenanceService) Track(ctx context.Context, r io.Reader, req service.TrackRequest) (*service.TrackResult, error) {
	args := m.Called(ctx, r, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.TrackResult), args.Error(1)
}

func (m *MockProvenanceService) List(ctx context.Context) []model.ProvenanceRecord {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.ProvenanceRecord)
}

func (m *MockProvenanceService) FindByDigest(ctx context.Context, digest string) ([]model.ProvenanceRecord, error) {
	args := m.Called(ctx, digest)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ProvenanceRecord), args.Error(1)
}

func (m *MockProvenanceService) Get(ctx context.Context, id string) (*model.ProvenanceRecord, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ProvenanceRecord), args.Error(1)
}
