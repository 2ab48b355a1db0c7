package postgres

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/julianstephens/streakline/internal/storage"
	"github.com/julianstephens/streakline/internal/storage/storagetest"
	"github.com/julianstephens/streakline/internal/utils"
)

// Set POSTGRES_TEST_URL to run, e.g.
// POSTGRES_TEST_URL="postgres://user@localhost:5432/testdb?sslmode=disable"
func newIntegrationStore(t *testing.T) storage.Provider {
	t.Helper()
	connStr := os.Getenv("POSTGRES_TEST_URL")
	if connStr == "" {
		t.Skip("POSTGRES_TEST_URL not set, skipping PostgreSQL integration test")
	}

	clock := utils.NewFixedClock(time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC))
	store := New(connStr, utils.NewNormalizer(time.UTC, clock))
	require.NoError(t, store.Init())

	dropSchema := func() {
		_, _ = store.GetDB().Exec(`DROP TABLE IF EXISTS habit_streaks, habit_completions, habits, schema_version CASCADE`)
	}
	// Leftovers from an aborted run would break the first migration.
	dropSchema()
	require.NoError(t, store.Close())
	require.NoError(t, store.Init())

	t.Cleanup(func() {
		dropSchema()
		store.Close()
	})
	return store
}

func TestProviderIntegration(t *testing.T) {
	storagetest.Run(t, newIntegrationStore)
}
