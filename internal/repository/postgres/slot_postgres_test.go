package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"provledger/internal/storage"
)

func TestSlotPostgres_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewSlotPostgres(db)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		mock.ExpectQuery("SELECT value FROM ledger_slots WHERE key = ?").
			WithArgs("provenance/ledger.json").
			WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow([]byte(`{"version":1,"records":[]}`)))

		got, err := repo.Get(ctx, "provenance/ledger.json")

		assert.NoError(t, err)
		assert.Equal(t, `{"version":1,"records":[]}`, string(got))
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT value FROM ledger_slots WHERE key = ?").
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{"value"}))

		got, err := repo.Get(ctx, "missing")

		assert.ErrorIs(t, err, storage.ErrNotFound)
		assert.Nil(t, got)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery("SELECT value FROM ledger_slots WHERE key = ?").
			WithArgs("broken").
			WillReturnError(errors.New("conn reset"))

		_, err := repo.Get(ctx, "broken")

		assert.EqualError(t, err, "conn reset")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotPostgres_Set(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewSlotPostgres(db)
	ctx := context.Background()
	value := []byte(`{"version":1,"records":[]}`)

	mock.ExpectExec("INSERT INTO ledger_slots").
		WithArgs("provenance/ledger.json", value, int64(len(value))).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.Set(ctx, "provenance/ledger.json", value))

	mock.ExpectExec("INSERT INTO ledger_slots").
		WithArgs("provenance/ledger.json", value, int64(len(value))).
		WillReturnError(errors.New("disk full"))

	assert.EqualError(t, repo.Set(ctx, "provenance/ledger.json", value), "disk full")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSlotPostgres_PingContext(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing()
	mock.ExpectPing().WillReturnError(errors.New("down"))

	repo := NewSlotPostgres(db)
	assert.NoError(t, repo.PingContext(context.Background()))
	assert.EqualError(t, repo.PingContext(context.Background()), "down")
	assert.NoError(t, mock.ExpectationsWereMet())
}
