package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"provledger/internal/hasher"
	"provledger/internal/ledger"
	"provledger/internal/metrics"
	"provledger/internal/model"
	"provledger/internal/registrar"
)

var (
	ErrReaderNil      = errors.New("reader is nil")
	ErrRecordNotFound = errors.New("provenance record not found")
	ErrIDRequired     = errors.New("id is required")
	ErrSourceRequired = errors.New("source is required")
	ErrInvalidDigest  = model.ErrInvalidDigest
)

// DigestResult is the outcome of hashing one upload.
type DigestResult struct {
	Digest model.Digest `json:"digest"`
	Size   int64        `json:"size"`
}

// TrackRequest carries the descriptive fields of a provenance submission.
type TrackRequest struct {
	Source      string
	Description string
	License     string
	SubmittedBy string
}

// TrackResult is returned once a record is in the ledger. PersistErr is set
// when the durable copy could not be written; the record is kept regardless.
type TrackResult struct {
	Record     model.ProvenanceRecord
	PersistErr error
}

// Persisted reports whether the ledger document was written after the append.
func (r *TrackResult) Persisted() bool { return r.PersistErr == nil }

// ProvenanceService defines the provenance use cases.
type ProvenanceService interface {
	// Digest hashes r and returns its SHA-256 hex digest and size.
	Digest(ctx context.Context, r io.Reader) (*DigestResult, error)

	// Track hashes r when present, registers the dataset with the external
	// registry and appends the resulting record. A nil r records NoContent.
	Track(ctx context.Context, r io.Reader, req TrackRequest) (*TrackResult, error)

	// List returns every record in insertion order.
	List(ctx context.Context) []model.ProvenanceRecord

	// FindByDigest returns the records attesting to digest.
	FindByDigest(ctx context.Context, digest string) ([]model.ProvenanceRecord, error)

	// Get returns a record by id.
	Get(ctx context.Context, id string) (*model.ProvenanceRecord, error)
}

// provenanceService is the single owner of the ledger inside the process.
type provenanceService struct {
	mu      sync.Mutex
	ledger  *ledger.Ledger
	reg     registrar.Registrar
	metrics *metrics.LedgerMetrics
	log     *zap.Logger
	tracer  trace.Tracer
}

// NewProvenanceService constructs a ProvenanceService around an already loaded ledger.
func NewProvenanceService(l *ledger.Ledger, reg registrar.Registrar, m *metrics.LedgerMetrics, log *zap.Logger) ProvenanceService {
	if m == nil {
		m = metrics.Nop()
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &provenanceService{
		ledger:  l,
		reg:     reg,
		metrics: m,
		log:     log.With(zap.String("component", "provenance")),
		tracer:  otel.Tracer("provledger/internal/service"),
	}
	m.LedgerRecords.Set(float64(l.Len()))
	return s
}

// LoadLedger restores l from its slot and records a load warning metric when
// the ledger starts empty because of a missing or bad document.
func LoadLedger(ctx context.Context, l *ledger.Ledger, m *metrics.LedgerMetrics) error {
	err := l.Load(ctx)
	var w *ledger.LoadWarning
	if m != nil && errors.As(err, &w) {
		m.LoadWarnings.WithLabelValues(string(w.Reason)).Inc()
	}
	return err
}

func (s *provenanceService) Digest(ctx context.Context, r io.Reader) (*DigestResult, error) {
	if r == nil {
		return nil, ErrReaderNil
	}
	_, span := s.tracer.Start(ctx, "provenance.Digest")
	defer span.End()

	d, n, err := hasher.Sum(r)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "hash failed")
		return nil, err
	}
	s.metrics.HashedBytes.Add(float64(n))
	span.SetAttributes(attribute.String("provenance.digest", d.String()), attribute.Int64("provenance.size", n))
	return &DigestResult{Digest: d, Size: n}, nil
}

func (s *provenanceService) Track(ctx context.Context, r io.Reader, req TrackRequest) (*TrackResult, error) {
	req.Source = strings.TrimSpace(req.Source)
	if req.Source == "" {
		return nil, ErrSourceRequired
	}

	ctx, span := s.tracer.Start(ctx, "provenance.Track",
		trace.WithAttributes(attribute.Bool("provenance.has_content", r != nil)),
	)
	defer span.End()

	digest := model.NoContent
	if r != nil {
		res, err := s.Digest(ctx, r)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "hash failed")
			return nil, err
		}
		digest = res.Digest
	}
	span.SetAttributes(attribute.String("provenance.digest", digest.String()))

	ref, err := s.reg.RegisterDataset(ctx, registrar.Dataset{
		Digest:      digest,
		Source:      req.Source,
		Description: req.Description,
		License:     req.License,
		SubmittedBy: req.SubmittedBy,
	})
	if err != nil {
		s.metrics.RegistrationFailures.Inc()
		s.log.Warn("provenance_registration_failed", zap.String("digest", digest.String()), zap.Error(err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "registration failed")
		var regErr *registrar.RegistrationError
		if errors.As(err, &regErr) {
			return nil, err
		}
		return nil, &registrar.RegistrationError{Reason: "registrar", Err: err}
	}

	s.mu.Lock()
	rec, persistErr := s.ledger.Append(ctx, model.NewRecord{
		Source:            req.Source,
		Description:       req.Description,
		License:           req.License,
		ContentDigest:     digest,
		ExternalReference: ref,
		SubmittedBy:       req.SubmittedBy,
	})
	n := s.ledger.Len()
	s.mu.Unlock()

	s.metrics.RecordsAppended.Inc()
	s.metrics.LedgerRecords.Set(float64(n))
	span.SetAttributes(attribute.String("provenance.record_id", rec.ID))

	if persistErr != nil {
		s.metrics.PersistFailures.Inc()
		span.RecordError(persistErr)
	}

	s.log.Info("provenance_recorded",
		zap.String("record_id", rec.ID),
		zap.String("digest", digest.String()),
		zap.String("external_reference", ref),
		zap.Bool("persisted", persistErr == nil),
	)
	return &TrackResult{Record: rec, PersistErr: persistErr}, nil
}

func (s *provenanceService) List(ctx context.Context) []model.ProvenanceRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.List()
}

func (s *provenanceService) FindByDigest(ctx context.Context, digest string) ([]model.ProvenanceRecord, error) {
	var d model.Digest
	if strings.TrimSpace(digest) == string(model.NoContent) {
		d = model.NoContent
	} else {
		parsed, err := model.ParseDigest(digest)
		if err != nil {
			return nil, fmt.Errorf("find by digest: %w", err)
		}
		d = parsed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.FindByDigest(d), nil
}

func (s *provenanceService) Get(ctx context.Context, id string) (*model.ProvenanceRecord, error) {
	if id == "" {
		return nil, ErrIDRequired
	}
	s.mu.Lock()
	rec, ok := s.ledger.Get(id)
	s.mu.Unlock()
	if !ok {
		return nil, ErrRecordNotFound
	}
	return &rec, nil
}
