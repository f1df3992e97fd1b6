// Package bootstrap opens the ledger slot backend selected by configuration.
package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"provledger/internal/config"
	"provledger/internal/database"
	"provledger/internal/database/migration"
	"provledger/internal/repository/postgres"
	"provledger/internal/storage"
)

// OpenSlot returns the slot for cfg.Ledger.Backend and a close func that
// releases any connection it holds.
func OpenSlot(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (storage.Slot, func() error, error) {
	if log == nil {
		log = zap.NewNop()
	}
	noop := func() error { return nil }

	switch cfg.Ledger.Backend {
	case config.BackendMemory, "":
		log.Warn("ledger_slot_memory", zap.String("reason", "records are lost on restart"))
		return storage.NewMemory(), noop, nil

	case config.BackendMinIO:
		slot, err := storage.NewMinIO(cfg.MinIO)
		if err != nil {
			return nil, nil, fmt.Errorf("init minio slot: %w", err)
		}
		log.Info("ledger_slot_ready", zap.String("backend", config.BackendMinIO), zap.String("bucket", cfg.MinIO.Bucket))
		return slot, noop, nil

	case config.BackendPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, fmt.Errorf("init postgres slot: %w", err)
		}
		if err := migration.EnsureMigrated(ctx, db, log, cfg.Database.Host); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate postgres slot: %w", err)
		}
		log.Info("ledger_slot_ready", zap.String("backend", config.BackendPostgres), zap.String("db_name", cfg.Database.Name))
		return postgres.NewSlotPostgres(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown ledger backend %q", cfg.Ledger.Backend)
	}
}
