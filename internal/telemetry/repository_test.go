package telemetry_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"codeberg.org/vintr/impressd/internal/logger"
	"codeberg.org/vintr/impressd/internal/telemetry"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	logger.Init(false, false, true)
}

func TestRepositoryRecordsAndFlushesOnClose(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "telemetry.db")

	repo, err := telemetry.NewRepository(telemetry.Config{
		DBPath:    dbPath,
		Enabled:   true,
		BatchSize: 100,
	}, logger.Default())
	require.NoError(t, err)

	now := time.Now()
	events := []*telemetry.EventRecord{
		{Timestamp: now, Target: "slot-1", Label: "exposed", Ratio: 0.1, Entering: true},
		{Timestamp: now, Target: "slot-1", Label: "impressed", Ratio: 0.6, Entering: true},
		{Timestamp: now.Add(time.Second), Target: "slot-1", Label: "impressed", Ratio: 0.2, Entering: false, Duration: time.Second},
	}
	for _, event := range events {
		require.NoError(t, repo.Record(event))
	}

	require.NoError(t, repo.Close())

	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count))
	assert.Equal(t, 3, count)

	var durationMs int64
	require.NoError(t, db.QueryRow(
		"SELECT duration_ms FROM events WHERE entering = 0",
	).Scan(&durationMs))
	assert.Equal(t, int64(1000), durationMs)

	version, err := telemetry.GetSchemaVersion(db)
	require.NoError(t, err)
	assert.Equal(t, telemetry.SchemaVersion, version)
}

func TestRepositoryFlushesWhenBatchFills(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "telemetry.db")

	repo, err := telemetry.NewRepository(telemetry.Config{
		DBPath:    dbPath,
		Enabled:   true,
		BatchSize: 2,
	}, logger.Default())
	require.NoError(t, err)

	now := time.Now()
	require.NoError(t, repo.Record(&telemetry.EventRecord{Timestamp: now, Target: "a", Label: "exposed", Entering: true}))
	require.NoError(t, repo.Record(&telemetry.EventRecord{Timestamp: now, Target: "b", Label: "exposed", Entering: true}))

	// Batch filled: rows are on disk before Close
	db, err := sql.Open("sqlite3", dbPath)
	require.NoError(t, err)
	defer db.Close()

	var count int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM events").Scan(&count))
	assert.Equal(t, 2, count)

	require.NoError(t, repo.Close())
}

func TestServiceDisabledIsNoOp(t *testing.T) {
	collector, err := telemetry.NewService(telemetry.Config{Enabled: false}, logger.Default())
	require.NoError(t, err)

	require.NoError(t, collector.Record(context.Background(), &telemetry.EventRecord{Target: "x"}))
	require.NoError(t, collector.Close())
}

func TestServiceRejectsNilEvent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "telemetry.db")

	collector, err := telemetry.NewService(telemetry.Config{
		DBPath:       dbPath,
		Enabled:      true,
		BatchSize:    10,
		BatchTimeout: 1,
	}, logger.Default())
	require.NoError(t, err)
	defer collector.Close()

	require.Error(t, collector.Record(context.Background(), nil))
}
