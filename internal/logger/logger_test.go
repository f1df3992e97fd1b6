package logger

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		t.Run(env, func(t *testing.T) {
			log, err := New(env)
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewJSON(&buf, time.UTC)

	log.Info("ledger_loaded", zap.Int("records", 3))
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))

	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "ledger_loaded", entry["msg"])
	assert.Equal(t, float64(3), entry["records"])

	ts, ok := entry["ts"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339Nano, ts)
	assert.NoError(t, err)
}
