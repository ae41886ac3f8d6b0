package database

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestConnectWithRetry_SucceedsAfterFailures(t *testing.T) {
	calls := 0
	open := func() (*gorm.DB, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		return gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	}

	db, err := ConnectWithRetry(open, 5, time.Millisecond, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, db)
	assert.Equal(t, 3, calls)
}

func TestConnectWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	calls := 0
	refused := errors.New("connection refused")
	open := func() (*gorm.DB, error) {
		calls++
		return nil, refused
	}

	db, err := ConnectWithRetry(open, 4, time.Millisecond, zap.NewNop())
	assert.Nil(t, db)
	assert.ErrorIs(t, err, refused)
	assert.Equal(t, 4, calls)
}

func TestConnectWithRetry_ZeroAttemptsStillTriesOnce(t *testing.T) {
	calls := 0
	open := func() (*gorm.DB, error) {
		calls++
		return nil, errors.New("down")
	}

	_, err := ConnectWithRetry(open, 0, time.Millisecond, zap.NewNop())
	assert.Error(t, err)
	assert.Equal(t, 1, calls)
}

type traceRow struct {
	ID   uint
	Name string
}

func TestZapGormLogger_RoutesQueriesThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: NewZapGormLogger(zap.New(core), gormlogger.Warn),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&traceRow{}))

	var row traceRow
	err = db.First(&row, 42).Error
	require.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.Zero(t, logs.FilterMessage("Query failed").Len())

	err = db.Exec("SELECT * FROM missing_table").Error
	require.Error(t, err)
	failed := logs.FilterMessage("Query failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.ErrorLevel, failed[0].Level)
	assert.Equal(t, "gorm", failed[0].LoggerName)
	assert.Contains(t, failed[0].ContextMap()["sql"], "missing_table")

	// warn level does not trace successful statements
	assert.Zero(t, logs.FilterMessage("Query").Len())

	verbose := db.Session(&gorm.Session{Logger: db.Logger.LogMode(gormlogger.Info)})
	require.NoError(t, verbose.Find(&[]traceRow{}).Error)
	assert.Equal(t, 1, logs.FilterMessage("Query").Len())
}

func TestCloseGORMDB_LogsThroughZap(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	CloseGORMDB(db, zap.New(core))
	assert.Equal(t, 1, logs.FilterMessage("Database connection closed.").Len())

	sqlDB, err := db.DB()
	require.NoError(t, err)
	assert.Error(t, sqlDB.Ping())

	CloseGORMDB(nil, zap.New(core))
}
