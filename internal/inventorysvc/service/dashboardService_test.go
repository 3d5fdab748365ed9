package service

import (
	"context"
	"testing"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/store"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardStats(t *testing.T) {
	f := newPriceFixture(PriceUpdateConfig{Thresholds: DefaultThresholds()})
	f.seed()
	f.db.Sets["swsh12"] = models.Set{ID: "swsh12"}
	f.db.Listings[1] = models.Listing{ID: 1, Status: models.ListingActive}
	f.db.Listings[2] = models.Listing{ID: 2, Status: models.ListingSold}
	f.queue.Push(QueueItem{CardID: "h1", Priority: TierHigh})

	audit := store.NewMemoryAuditStore(5)
	svc := NewDashboardService(f.db, f.svc, audit)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.InventoryStats{
		Cards: 5, Sets: 1, Listings: 2, ActiveListings: 1,
		Unpriced: 1, HighTier: 2, MediumTier: 1, LowTier: 2,
	}, stats.Inventory)
	assert.Equal(t, 1, stats.Queue.Total)
	assert.Nil(t, stats.LastSync)

	require.NoError(t, audit.SaveSyncRun(context.Background(), &models.SyncRun{
		RunID: "r1", Kind: models.SyncKindSets, Results: []models.SyncResult{{ID: "x", Success: true}},
	}))
	stats, err = svc.Stats(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stats.LastSync)
	assert.Equal(t, "r1", stats.LastSync.RunID)
	assert.Nil(t, stats.LastSync.Results)
}

func TestDashboardStatsStoreError(t *testing.T) {
	db := storetest.New()
	db.Err = assert.AnError
	prices := NewPriceUpdateService(db, db, nil, NewPriceQueue(), nil, nil, PriceUpdateConfig{Thresholds: DefaultThresholds()})

	_, err := NewDashboardService(db, prices, nil).Stats(context.Background())
	assert.ErrorIs(t, err, assert.AnError)
}
