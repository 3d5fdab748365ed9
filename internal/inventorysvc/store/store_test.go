package store

import (
	"context"
	"os"
	"testing"
	"time"

	pgdb "github.com/avvvet/pokecard-services/internal/inventorysvc/db"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPool connects to TEST_POSTGRES_URL, applies the schema and empties
// every table. Tests are skipped without it.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_POSTGRES_URL")
	if dsn == "" {
		t.Skip("TEST_POSTGRES_URL not set")
	}
	pool, err := pgdb.Connect(dsn, 4)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	ctx := context.Background()
	require.NoError(t, pgdb.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE inventory_listings, users, price_history, card_variations, cards, sets RESTART IDENTITY`)
	require.NoError(t, err)
	return pool
}

func nd(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

func seedCatalog(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()
	sets := NewSetStore(pool)
	cards := NewCardStore(pool)

	require.NoError(t, sets.UpsertSet(ctx, &models.Set{ID: "base1", Name: "Base", Series: "Base", Era: "base", Total: 3}))
	for _, c := range []models.Card{
		{ID: "base1-4", SetID: "base1", Name: "Charizard", Number: "4", RarityCode: "RH", Era: "base", ImageSmall: "x", MarketPrice: nd("420.00")},
		{ID: "base1-16", SetID: "base1", Name: "Zapdos", Number: "16", RarityCode: "RH", Era: "base", ImageSmall: "x", MarketPrice: nd("25.50")},
		{ID: "base1-58", SetID: "base1", Name: "Pikachu", Number: "58", RarityCode: "C", Era: "base", ImageSmall: "x"},
	} {
		c := c
		require.NoError(t, cards.SaveCard(ctx, &c, []models.Variation{{Kind: "holofoil", Market: c.MarketPrice}}))
	}
}

func TestCardStoreSaveKeepsPriceWhenMissing(t *testing.T) {
	pool := testPool(t)
	seedCatalog(t, pool)
	ctx := context.Background()
	cards := NewCardStore(pool)

	before, err := cards.GetCard(ctx, "base1-4")
	require.NoError(t, err)
	require.NotNil(t, before.PriceUpdatedAt)

	resync := *before
	resync.Name = "Charizard (Base)"
	resync.MarketPrice = decimal.NullDecimal{}
	require.NoError(t, cards.SaveCard(ctx, &resync, nil))

	after, err := cards.GetCard(ctx, "base1-4")
	require.NoError(t, err)
	assert.Equal(t, "Charizard (Base)", after.Name)
	assert.True(t, after.MarketPrice.Decimal.Equal(decimal.RequireFromString("420")))

	_, err = cards.GetCard(ctx, "base1-999")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestCardStoreSearch(t *testing.T) {
	pool := testPool(t)
	seedCatalog(t, pool)
	ctx := context.Background()
	cards := NewCardStore(pool)

	got, total, err := cards.SearchCards(ctx, models.CardFilter{Sort: "price", Desc: true, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"base1-4", "base1-16", "base1-58"}, []string{got[0].ID, got[1].ID, got[2].ID})

	got, total, err = cards.SearchCards(ctx, models.CardFilter{
		MinPrice: nd("10"), MaxPriceBelow: nd("50"), Limit: 10,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "base1-16", got[0].ID)

	got, _, err = cards.SearchCards(ctx, models.CardFilter{MaxPriceBelow: nd("10"), IncludeUnpriced: true, Limit: 10})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "base1-58", got[0].ID)

	got, total, err = cards.SearchCards(ctx, models.CardFilter{Query: "PIKA", Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, "base1-58", got[0].ID)
}

func TestPriceStoreSaveRefresh(t *testing.T) {
	pool := testPool(t)
	seedCatalog(t, pool)
	ctx := context.Background()
	prices := NewPriceStore(pool)
	cards := NewCardStore(pool)
	at := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, prices.SaveRefresh(ctx, "base1-16", nd("27.00"), []models.Variation{
		{Kind: "holofoil", Market: nd("27.00")},
		{Kind: "reverseHolofoil", Market: nd("9.00")},
	}, at))

	c, err := cards.GetCard(ctx, "base1-16")
	require.NoError(t, err)
	assert.True(t, c.MarketPrice.Decimal.Equal(decimal.NewFromInt(27)))
	assert.True(t, c.PriceUpdatedAt.Equal(at))

	vars, err := cards.ListVariations(ctx, "base1-16")
	require.NoError(t, err)
	assert.Len(t, vars, 2)

	hist, err := prices.ListHistory(ctx, "base1-16", 10)
	require.NoError(t, err)
	assert.Len(t, hist, 2)

	// a refresh without a price leaves the old one
	require.NoError(t, prices.SaveRefresh(ctx, "base1-16", decimal.NullDecimal{}, nil, at.Add(time.Minute)))
	c, err = cards.GetCard(ctx, "base1-16")
	require.NoError(t, err)
	assert.True(t, c.MarketPrice.Decimal.Equal(decimal.NewFromInt(27)))

	pending, err := cards.ListCardsForPricing(ctx, models.PricingFilter{IncludeUnpriced: true, MaxPriceBelow: nd("10"), Limit: 5})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "base1-58", pending[0].ID)
}

func TestListingStore(t *testing.T) {
	pool := testPool(t)
	seedCatalog(t, pool)
	ctx := context.Background()
	users := NewUserStore(pool)
	listings := NewListingStore(pool)

	uid, err := users.CreateUser(ctx, models.User{Name: "shop"})
	require.NoError(t, err)
	u, err := users.GetByID(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, "seller", u.Role)

	l := &models.Listing{UserID: uid, CardID: "base1-4", Condition: "NM", Quantity: 1, Price: decimal.RequireFromString("450"), Status: models.ListingActive}
	require.NoError(t, listings.CreateListing(ctx, l))
	assert.NotZero(t, l.ID)

	bad := &models.Listing{UserID: uid, CardID: "nope", Condition: "NM", Quantity: 1, Price: decimal.NewFromInt(1), Status: models.ListingActive}
	assert.ErrorIs(t, listings.CreateListing(ctx, bad), models.ErrInvalidInput)

	l.Quantity = 0
	l.Status = models.ListingSold
	require.NoError(t, listings.UpdateListing(ctx, l))
	got, err := listings.GetListing(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ListingSold, got.Status)

	list, err := listings.ListListings(ctx, models.ListingFilter{UserID: uid, Status: models.ListingSold, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, listings.DeleteListing(ctx, l.ID))
	assert.ErrorIs(t, listings.DeleteListing(ctx, l.ID), models.ErrNotFound)
}

func TestValidationAndStatsStores(t *testing.T) {
	pool := testPool(t)
	seedCatalog(t, pool)
	ctx := context.Background()
	v := NewValidationStore(pool)

	n, samples, err := v.CountIssues(ctx, "cards_missing_price", time.Now(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"base1-58"}, samples)

	n, _, err = v.CountIssues(ctx, "cards_stale_price", time.Now().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	for name := range issueQueries {
		_, _, err := v.CountIssues(ctx, name, time.Now(), 3)
		assert.NoError(t, err, name)
	}
	_, _, err = v.CountIssues(ctx, "no_such_check", time.Now(), 3)
	assert.Error(t, err)

	st, err := NewStatsStore(pool).InventoryStats(ctx, decimal.NewFromInt(50), decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.Equal(t, models.InventoryStats{
		Cards: 3, Sets: 1, Variations: 3, Unpriced: 1, HighTier: 1, MediumTier: 1, LowTier: 1,
	}, st)
}
