package registrar

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provledger/internal/config"
	"provledger/internal/model"
)

const digestHello = model.Digest("b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9")

func newTestRegistrar(t *testing.T, h http.HandlerFunc) *HTTPRegistrar {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	r, err := NewHTTP(config.RegistrarConfig{URL: srv.URL + "/", Timeout: 2 * time.Second}, nil)
	require.NoError(t, err)
	return r
}

func TestNewHTTP_RequiresURL(t *testing.T) {
	_, err := NewHTTP(config.RegistrarConfig{URL: "  "}, nil)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestRegisterDataset_Success(t *testing.T) {
	var got Dataset
	r := newTestRegistrar(t, func(w http.ResponseWriter, req *http.Request) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/datasets", req.URL.Path)
		assert.Equal(t, "application/json", req.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(req.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":true,"transaction_hash":"0xabc123"}`))
	})

	ds := Dataset{
		Digest:      digestHello,
		Source:      "https://example.org/data.csv",
		Description: "weather samples",
		License:     "CC-BY-4.0",
		SubmittedBy: "0x01",
	}
	ref, err := r.RegisterDataset(context.Background(), ds)

	require.NoError(t, err)
	assert.Equal(t, "0xabc123", ref)
	assert.Equal(t, ds, got)
}

func TestRegisterDataset_Failures(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
		wantReason string
	}{
		{"status false", http.StatusOK, `{"status":false,"message":"rejected by policy"}`, http.StatusOK, "rejected by policy"},
		{"status false no message", http.StatusOK, `{"status":false}`, http.StatusOK, "registry reported failure"},
		{"empty hash", http.StatusOK, `{"status":true,"transaction_hash":"  "}`, http.StatusOK, "empty transaction hash"},
		{"non 2xx with message", http.StatusBadGateway, `{"status":false,"message":"node unavailable"}`, http.StatusBadGateway, "node unavailable"},
		{"non 2xx plain body", http.StatusInternalServerError, `oops`, http.StatusInternalServerError, "Internal Server Error"},
		{"malformed json", http.StatusOK, `{"status":`, http.StatusOK, "decode response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRegistrar(t, func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			ref, err := r.RegisterDataset(context.Background(), Dataset{Digest: digestHello})

			assert.Empty(t, ref)
			var regErr *RegistrationError
			require.ErrorAs(t, err, &regErr)
			assert.Equal(t, tt.wantStatus, regErr.Status)
			assert.Equal(t, tt.wantReason, regErr.Reason)
		})
	}
}

func TestRegisterDataset_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	url := srv.URL
	srv.Close()

	r, err := NewHTTP(config.RegistrarConfig{URL: url, Timeout: time.Second}, nil)
	require.NoError(t, err)

	_, err = r.RegisterDataset(context.Background(), Dataset{Digest: digestHello})

	var regErr *RegistrationError
	require.ErrorAs(t, err, &regErr)
	assert.Equal(t, "request", regErr.Reason)
	assert.NotNil(t, errors.Unwrap(err))
}

func TestRegisterDataset_ContextCanceled(t *testing.T) {
	r := newTestRegistrar(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status":true,"transaction_hash":"0x1"}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.RegisterDataset(ctx, Dataset{Digest: digestHello})

	assert.ErrorIs(t, err, context.Canceled)
}

func TestRegistrationError_Error(t *testing.T) {
	err := &RegistrationError{Status: 502, Reason: "node unavailable"}
	assert.Equal(t, "registration failed (status 502): node unavailable", err.Error())

	wrapped := &RegistrationError{Reason: "request", Err: errors.New("dial tcp: refused")}
	assert.Equal(t, "registration failed: request: dial tcp: refused", wrapped.Error())
}

func TestUnconfigured(t *testing.T) {
	ref, err := Unconfigured{}.RegisterDataset(context.Background(), Dataset{Digest: digestHello})

	assert.Empty(t, ref)
	assert.ErrorIs(t, err, ErrNotConfigured)
	var regErr *RegistrationError
	assert.ErrorAs(t, err, &regErr)
}
