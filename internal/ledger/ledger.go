// Package ledger keeps the local provenance ledger: an append-only, ordered
// sequence of provenance records mirrored into a durable key-value slot.
//
// A Ledger has a single logical owner and does no locking of its own; callers
// sharing one across goroutines must serialise every method call.
package ledger

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"provledger/internal/model"
	"provledger/internal/storage"
)

// DefaultKey is the slot key the ledger document is stored under.
const DefaultKey = "provenance/ledger.json"

// DefaultPersistTimeout bounds a single slot write.
const DefaultPersistTimeout = 5 * time.Second

// Ledger is the in-memory source of truth for provenance records.
type Ledger struct {
	slot           storage.Slot
	key            string
	persistTimeout time.Duration
	log            *zap.Logger
	now            func() time.Time
	newID          func() string

	records []model.ProvenanceRecord
	index   map[string]int

	// unsynced is set when Load could not read the slot; the durable
	// document may still hold records this ledger has never seen.
	unsynced bool
}

// Option configures a Ledger.
type Option func(*Ledger)

// WithKey overrides the slot key.
func WithKey(key string) Option {
	return func(l *Ledger) {
		if key != "" {
			l.key = key
		}
	}
}

// WithPersistTimeout bounds each slot read and write.
func WithPersistTimeout(d time.Duration) Option {
	return func(l *Ledger) {
		if d > 0 {
			l.persistTimeout = d
		}
	}
}

// WithLogger sets the logger used for load warnings and persistence failures.
func WithLogger(log *zap.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.log = log
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// WithIDGenerator replaces the uuid v4 record id generator.
func WithIDGenerator(gen func() string) Option {
	return func(l *Ledger) { l.newID = gen }
}

// New returns an empty ledger mirrored into slot.
func New(slot storage.Slot, opts ...Option) *Ledger {
	l := &Ledger{
		slot:           slot,
		key:            DefaultKey,
		persistTimeout: DefaultPersistTimeout,
		log:            zap.NewNop(),
		now:            time.Now,
		newID:          uuid.NewString,
		index:          make(map[string]int),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Key returns the slot key the ledger is persisted under.
func (l *Ledger) Key() string { return l.key }

// Append records a new provenance attestation and flushes the ledger.
// The returned record is always appended; a non-nil error is a
// *PersistenceError and only means the durable copy is behind.
func (l *Ledger) Append(ctx context.Context, in model.NewRecord) (model.ProvenanceRecord, error) {
	createdAt := l.now().UTC().Round(0)
	if n := len(l.records); n > 0 && createdAt.Before(l.records[n-1].CreatedAt) {
		createdAt = l.records[n-1].CreatedAt
	}

	digest := in.ContentDigest
	if digest == "" {
		digest = model.NoContent
	}

	rec := model.ProvenanceRecord{
		ID:                l.uniqueID(),
		Source:            validText(in.Source),
		Description:       validText(in.Description),
		License:           validText(in.License),
		ContentDigest:     digest,
		CreatedAt:         createdAt,
		ExternalReference: validText(in.ExternalReference),
		SubmittedBy:       validText(in.SubmittedBy),
	}
	l.index[rec.ID] = len(l.records)
	l.records = append(l.records, rec)

	if err := l.Persist(ctx); err != nil {
		return rec, err
	}
	return rec, nil
}

// validText replaces invalid UTF-8 with U+FFFD so the stored value survives a
// JSON encode and decode unchanged.
func validText(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

func (l *Ledger) uniqueID() string {
	for {
		id := l.newID()
		if _, taken := l.index[id]; !taken && id != "" {
			return id
		}
	}
}

// List returns a copy of every record in insertion order.
func (l *Ledger) List() []model.ProvenanceRecord {
	out := make([]model.ProvenanceRecord, len(l.records))
	copy(out, l.records)
	return out
}

// FindByDigest returns the records whose content digest equals d, in insertion order.
func (l *Ledger) FindByDigest(d model.Digest) []model.ProvenanceRecord {
	out := make([]model.ProvenanceRecord, 0)
	for _, r := range l.records {
		if r.ContentDigest == d {
			out = append(out, r)
		}
	}
	return out
}

// Get returns the record with the given id.
func (l *Ledger) Get(id string) (model.ProvenanceRecord, bool) {
	i, ok := l.index[id]
	if !ok {
		return model.ProvenanceRecord{}, false
	}
	return l.records[i], true
}

// Len returns the number of records.
func (l *Ledger) Len() int { return len(l.records) }

// Clear drops every record. The durable copy is untouched until the next Persist,
// which then overwrites it.
func (l *Ledger) Clear() {
	l.records = nil
	l.index = make(map[string]int)
	l.unsynced = false
}

// Prune keeps only the records for which keep returns true, preserving their
// order, and returns how many were removed. The durable copy is untouched
// until the next Persist.
func (l *Ledger) Prune(keep func(model.ProvenanceRecord) bool) int {
	kept := l.records[:0:0]
	for _, r := range l.records {
		if keep(r) {
			kept = append(kept, r)
		}
	}
	removed := len(l.records) - len(kept)
	l.replace(kept)
	return removed
}

// Load replaces the in-memory records with the persisted document. If the slot
// is empty, unreachable, or holds a document that does not parse, the ledger
// is left empty and a *LoadWarning is returned; Load never fails otherwise.
//
// After an unreadable slot the ledger is marked unsynced: the next Persist
// reads the durable document first and keeps its records ahead of the ones
// appended since, instead of overwriting them.
func (l *Ledger) Load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.persistTimeout)
	defer cancel()

	l.Clear()

	b, err := l.slot.Get(ctx, l.key)
	if err != nil {
		reason := ReasonUnreadable
		if errors.Is(err, storage.ErrNotFound) {
			reason = ReasonMissing
		}
		return l.warn(reason, err)
	}

	records, err := Decode(b)
	if err != nil {
		return l.warn(ReasonCorrupt, err)
	}
	l.replace(records)
	l.log.Info("ledger_loaded", zap.String("key", l.key), zap.Int("records", len(records)))
	return nil
}

func (l *Ledger) warn(reason LoadReason, err error) *LoadWarning {
	w := &LoadWarning{Key: l.key, Reason: reason, Err: err}
	l.unsynced = reason == ReasonUnreadable
	l.log.Warn("ledger_load_warning",
		zap.String("key", l.key),
		zap.String("reason", string(reason)),
		zap.Error(err),
	)
	return w
}

func (l *Ledger) replace(records []model.ProvenanceRecord) {
	l.records = records
	l.index = make(map[string]int, len(records))
	for i, r := range records {
		l.index[r.ID] = i
	}
}

// Persist writes the full ledger document to the slot in one Set. An unsynced
// ledger is merged with the durable document first; if that document still
// cannot be read nothing is written.
func (l *Ledger) Persist(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, l.persistTimeout)
	defer cancel()

	if l.unsynced {
		if err := l.resync(ctx); err != nil {
			return l.persistFailed("resync", err)
		}
	}

	b, err := Encode(l.records)
	if err != nil {
		return l.persistFailed("encode", err)
	}

	if err := l.slot.Set(ctx, l.key, b); err != nil {
		return l.persistFailed("write", err)
	}
	return nil
}

// resync folds the durable records in front of the in-memory ones, skipping
// ids already present. A missing or corrupt document has nothing to keep.
func (l *Ledger) resync(ctx context.Context) error {
	b, err := l.slot.Get(ctx, l.key)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	var persisted []model.ProvenanceRecord
	if err == nil {
		if persisted, err = Decode(b); err != nil {
			l.log.Warn("ledger_resync_discarded", zap.String("key", l.key), zap.Error(err))
			persisted = nil
		}
	}

	merged := make([]model.ProvenanceRecord, 0, len(persisted)+len(l.records))
	seen := make(map[string]struct{}, len(persisted))
	for _, r := range persisted {
		merged = append(merged, r)
		seen[r.ID] = struct{}{}
	}
	for _, r := range l.records {
		if _, dup := seen[r.ID]; !dup {
			merged = append(merged, r)
		}
	}
	l.replace(merged)
	l.unsynced = false
	l.log.Info("ledger_resynced", zap.String("key", l.key), zap.Int("recovered", len(persisted)), zap.Int("records", len(merged)))
	return nil
}

func (l *Ledger) persistFailed(op string, err error) *PersistenceError {
	l.log.Error("ledger_persist_failed",
		zap.String("key", l.key),
		zap.String("op", op),
		zap.Int("records", len(l.records)),
		zap.Error(err),
	)
	return &PersistenceError{Key: l.key, Op: op, Err: err}
}
