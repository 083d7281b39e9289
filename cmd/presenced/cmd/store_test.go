package cmd

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tebraouisamy/presence-app/attendance"
)

func TestOpenStore(t *testing.T) {
	t.Run("Memory", func(t *testing.T) {
		store, closeStore, err := openStore(context.Background(), "memory", "", "")
		require.NoError(t, err)
		defer closeStore()

		inserted, err := store.InsertIfAbsent(context.Background(), attendance.Record{
			ID:            "r1",
			ParticipantID: "u1",
			SessionID:     "DEVOPS",
			Day:           "2026-03-02",
			Status:        attendance.StatusPresent,
		})
		require.NoError(t, err)
		assert.True(t, inserted)
	})

	t.Run("Bbolt", func(t *testing.T) {
		dataDir := filepath.Join(t.TempDir(), "data")
		store, closeStore, err := openStore(context.Background(), "bbolt", dataDir, "")
		require.NoError(t, err)
		defer closeStore()
		require.NotNil(t, store)
	})

	t.Run("PostgresRequiresDSN", func(t *testing.T) {
		_, _, err := openStore(context.Background(), "postgres", "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "DATABASE_URL")
	})

	t.Run("UnknownBackend", func(t *testing.T) {
		_, _, err := openStore(context.Background(), "sqlite", "", "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown storage backend")
	})
}
