package registrar

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"provledger/internal/config"
	"provledger/internal/model"
)

// maxResponseBytes caps how much of a registry reply is read.
const maxResponseBytes = 1 << 20

// Dataset is the payload sent to the external registry.
type Dataset struct {
	Digest      model.Digest `json:"digest"`
	Source      string       `json:"source"`
	Description string       `json:"description"`
	License     string       `json:"license"`
	SubmittedBy string       `json:"submitted_by,omitempty"`
}

// Registrar records a dataset in an external registry and returns the
// reference it was assigned there.
type Registrar interface {
	RegisterDataset(ctx context.Context, ds Dataset) (string, error)
}

// RegistrationError reports a registry call that did not yield a reference.
// Nothing is written to the ledger when it is returned.
type RegistrationError struct {
	Status int
	Reason string
	Err    error
}

func (e *RegistrationError) Error() string {
	var b strings.Builder
	b.WriteString("registration failed")
	if e.Status != 0 {
		fmt.Fprintf(&b, " (status %d)", e.Status)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *RegistrationError) Unwrap() error { return e.Err }

// ErrNotConfigured is returned when no registry URL is set.
var ErrNotConfigured = errors.New("registrar: url not configured")

type registerResponse struct {
	Status          bool   `json:"status"`
	TransactionHash string `json:"transaction_hash"`
	Message         string `json:"message,omitempty"`
}

// HTTPRegistrar posts datasets as JSON to {URL}/datasets.
type HTTPRegistrar struct {
	baseURL string
	client  *http.Client
	log     *zap.Logger
}

// NewHTTP builds an HTTPRegistrar with a traced transport.
func NewHTTP(cfg config.RegistrarConfig, log *zap.Logger) (*HTTPRegistrar, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, ErrNotConfigured
	}
	if log == nil {
		log = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &HTTPRegistrar{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
		log: log.With(zap.String("component", "registrar")),
	}, nil
}

var _ Registrar = (*HTTPRegistrar)(nil)

// RegisterDataset submits ds and returns the transaction hash.
func (r *HTTPRegistrar) RegisterDataset(ctx context.Context, ds Dataset) (string, error) {
	body, err := json.Marshal(ds)
	if err != nil {
		return "", &RegistrationError{Reason: "encode request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+"/datasets", bytes.NewReader(body))
	if err != nil {
		return "", &RegistrationError{Reason: "build request", Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := r.client.Do(req)
	if err != nil {
		r.log.Warn("registrar_request_failed", zap.Error(err), zap.Duration("latency", time.Since(start)))
		return "", &RegistrationError{Reason: "request", Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", &RegistrationError{Status: resp.StatusCode, Reason: "read response", Err: err}
	}

	var out registerResponse
	decodeErr := json.Unmarshal(raw, &out)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := out.Message
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		r.log.Warn("registrar_rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("reason", reason),
			zap.Duration("latency", time.Since(start)),
		)
		return "", &RegistrationError{Status: resp.StatusCode, Reason: reason}
	}
	if decodeErr != nil {
		return "", &RegistrationError{Status: resp.StatusCode, Reason: "decode response", Err: decodeErr}
	}
	if !out.Status {
		reason := out.Message
		if reason == "" {
			reason = "registry reported failure"
		}
		return "", &RegistrationError{Status: resp.StatusCode, Reason: reason}
	}
	hash := strings.TrimSpace(out.TransactionHash)
	if hash == "" {
		return "", &RegistrationError{Status: resp.StatusCode, Reason: "empty transaction hash"}
	}

	r.log.Info("registrar_registered",
		zap.String("digest", ds.Digest.String()),
		zap.String("external_reference", hash),
		zap.Duration("latency", time.Since(start)),
	)
	return hash, nil
}

// Unconfigured rejects every registration. It stands in when REGISTRAR_URL is
// empty so hashing and listing stay available.
type Unconfigured struct{}

var _ Registrar = Unconfigured{}

// RegisterDataset always fails with ErrNotConfigured.
func (Unconfigured) RegisterDataset(context.Context, Dataset) (string, error) {
	return "", &RegistrationError{Reason: "registrar not configured", Err: ErrNotConfigured}
}
