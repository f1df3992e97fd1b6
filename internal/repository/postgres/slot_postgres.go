package postgres

import (
	"context"
	"database/sql"
	"errors"

	"provledger/internal/storage"
)

// SlotPostgres is a PostgreSQL implementation of storage.Slot.
// Each key is one row in ledger_slots; writes are single-statement upserts.
type SlotPostgres struct {
	db *sql.DB
}

// NewSlotPostgres creates a new SlotPostgres.
func NewSlotPostgres(db *sql.DB) *SlotPostgres {
	return &SlotPostgres{db: db}
}

var _ storage.Slot = (*SlotPostgres)(nil)

// Get returns the stored value for key, or storage.ErrNotFound.
func (r *SlotPostgres) Get(ctx context.Context, key string) ([]byte, error) {
	const q = `SELECT value FROM ledger_slots WHERE key = $1`
	var value []byte
	if err := r.db.QueryRowContext(ctx, q, key).Scan(&value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return value, nil
}

// Set upserts value under key.
func (r *SlotPostgres) Set(ctx context.Context, key string, value []byte) error {
	const q = `
		INSERT INTO ledger_slots (key, value, size, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, size = EXCLUDED.size, updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.ExecContext(ctx, q, key, value, int64(len(value)))
	return err
}

// PingContext checks database connectivity.
func (r *SlotPostgres) PingContext(ctx context.Context) error {
	return r.db.PingContext(ctx)
}
