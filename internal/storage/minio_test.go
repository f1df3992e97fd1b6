package storage

import (
	"errors"
	"net/http"
	"testing"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"

	"provledger/internal/config"
)

func TestNewMinIO_Validation(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.MinIOConfig
		wantErr string
	}{
		{name: "missing endpoint", cfg: config.MinIOConfig{}, wantErr: "minio endpoint is required"},
		{name: "missing credentials", cfg: config.MinIOConfig{Endpoint: "localhost:9000"}, wantErr: "minio credentials are required"},
		{name: "missing bucket", cfg: config.MinIOConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "s"}, wantErr: "minio bucket is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			slot, err := NewMinIO(tt.cfg)
			assert.EqualError(t, err, tt.wantErr)
			assert.Nil(t, slot)
		})
	}
}

func TestTranslateMinIOError(t *testing.T) {
	assert.ErrorIs(t, translateMinIOError(minio.ErrorResponse{Code: "NoSuchKey"}), ErrNotFound)
	assert.ErrorIs(t, translateMinIOError(minio.ErrorResponse{StatusCode: http.StatusNotFound}), ErrNotFound)

	other := errors.New("connection reset")
	assert.Equal(t, other, translateMinIOError(other))
}
