package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/avvvet/pokecard-services/internal/db"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exerciseAuditLog(t *testing.T, audit interface {
	SaveSyncRun(ctx context.Context, run *models.SyncRun) error
	ListSyncRuns(ctx context.Context, limit int) ([]models.SyncRun, error)
	LastSyncRun(ctx context.Context) (*models.SyncRun, error)
	SaveValidationReport(ctx context.Context, report *models.ValidationReport) error
	ListValidationReports(ctx context.Context, limit int) ([]models.ValidationReport, error)
}) {
	ctx := context.Background()

	_, err := audit.LastSyncRun(ctx)
	assert.ErrorIs(t, err, models.ErrNotFound)

	start := time.Now().UTC().Truncate(time.Millisecond)
	for i, id := range []string{"r1", "r2", "r3"} {
		require.NoError(t, audit.SaveSyncRun(ctx, &models.SyncRun{
			RunID:      id,
			Kind:       models.SyncKindSets,
			Results:    []models.SyncResult{{ID: "base1", Success: true}},
			StartedAt:  start.Add(time.Duration(i) * time.Second),
			FinishedAt: start.Add(time.Duration(i)*time.Second + time.Millisecond),
		}))
	}

	last, err := audit.LastSyncRun(ctx)
	require.NoError(t, err)
	assert.Equal(t, "r3", last.RunID)
	assert.Empty(t, last.Results)

	runs, err := audit.ListSyncRuns(ctx, 2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "r3", runs[0].RunID)
	assert.Equal(t, "r2", runs[1].RunID)

	require.NoError(t, audit.SaveValidationReport(ctx, &models.ValidationReport{RunID: "v1", RunAt: start, Passed: true}))
	require.NoError(t, audit.SaveValidationReport(ctx, &models.ValidationReport{RunID: "v2", RunAt: start.Add(time.Second)}))
	reports, err := audit.ListValidationReports(ctx, 10)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "v2", reports[0].RunID)
}

func TestMemoryAuditStore(t *testing.T) {
	exerciseAuditLog(t, NewMemoryAuditStore(10))
}

func TestMemoryAuditStoreCapsEntries(t *testing.T) {
	audit := NewMemoryAuditStore(2)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, audit.SaveSyncRun(ctx, &models.SyncRun{StartedAt: time.Unix(int64(i), 0)}))
	}
	runs, err := audit.ListSyncRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, int64(4), runs[0].StartedAt.Unix())
}

func TestMongoAuditStore(t *testing.T) {
	uri := os.Getenv("TEST_MONGODB_URI")
	if uri == "" {
		t.Skip("TEST_MONGODB_URI not set")
	}
	ctx := context.Background()
	database, err := db.ConnectToDB(ctx, uri)
	require.NoError(t, err)
	defer db.Disconnect(database)
	require.NoError(t, database.Drop(ctx))

	audit, err := NewMongoAuditStore(ctx, database, time.Hour)
	require.NoError(t, err)
	exerciseAuditLog(t, audit)
}
