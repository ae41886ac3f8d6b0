package app

import (
	"testing"

	"therapylink_backend/internal/platform/database/dbtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMigrate_CreatesTables(t *testing.T) {
	db := dbtest.Open(t)
	require.NoError(t, Migrate(db, zap.NewNop()))
	// Running twice is a no-op.
	require.NoError(t, Migrate(db, zap.NewNop()))

	for _, table := range []string{"users", "therapists", "availabilities", "appointments", "notifications"} {
		assert.True(t, db.Migrator().HasTable(table), table)
	}
}
