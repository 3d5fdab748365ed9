package service

import (
	"context"
	"testing"
	"time"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchParamsNormalize(t *testing.T) {
	p := SearchParams{RarityCode: " rh ", Era: "SWSH", Tier: "All", PageSize: 1000, Page: -2}
	require.NoError(t, p.Normalize())
	assert.Equal(t, "RH", p.RarityCode)
	assert.Equal(t, "swsh", p.Era)
	assert.Empty(t, p.Tier)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, MaxPageSize, p.PageSize)
	assert.Equal(t, "name", p.Sort)
	assert.Equal(t, "asc", p.Order)

	bad := []SearchParams{
		{Sort: "rarity"},
		{Order: "up"},
		{Era: "modern"},
		{Tier: "mythic"},
		{MinPrice: price("10"), MaxPrice: price("5")},
	}
	for _, b := range bad {
		assert.ErrorIs(t, b.Normalize(), models.ErrInvalidInput, "%+v", b)
	}
}

func TestSearchParamsKeyDistinguishesFilters(t *testing.T) {
	a := SearchParams{Query: "pika"}
	b := SearchParams{Query: "pika", MinPrice: price("1")}
	require.NoError(t, a.Normalize())
	require.NoError(t, b.Normalize())
	assert.NotEqual(t, a.Key(), b.Key())
}

func newCardFixture() (*storetest.Store, *MemoryCache, *CardService) {
	db := storetest.New()
	db.Sets["swsh7"] = models.Set{ID: "swsh7", Name: "Evolving Skies", Era: "swsh"}
	for _, c := range []models.Card{
		{ID: "swsh7-215", SetID: "swsh7", Name: "Umbreon VMAX", Number: "215", RarityCode: "SR", Era: "swsh", MarketPrice: storetest.Price("410.00")},
		{ID: "swsh7-95", SetID: "swsh7", Name: "Umbreon V", Number: "95", RarityCode: "RHV", Era: "swsh", MarketPrice: storetest.Price("12.00")},
		{ID: "swsh7-1", SetID: "swsh7", Name: "Pinsir", Number: "1", RarityCode: "C", Era: "swsh", MarketPrice: storetest.Price("0.10")},
		{ID: "swsh7-2", SetID: "swsh7", Name: "Cherubi", Number: "2", RarityCode: "C", Era: "swsh"},
	} {
		db.AddCard(c)
	}
	cache := NewMemoryCache(time.Minute, 10)
	return db, cache, NewCardService(db, db, db, cache, DefaultThresholds())
}

func cardIDs(page *models.CardPage) []string {
	out := make([]string, len(page.Cards))
	for i, c := range page.Cards {
		out[i] = c.ID
	}
	return out
}

func TestSearchByTier(t *testing.T) {
	_, _, svc := newCardFixture()
	ctx := context.Background()

	page, err := svc.Search(ctx, SearchParams{Tier: "high"})
	require.NoError(t, err)
	assert.Equal(t, []string{"swsh7-215"}, cardIDs(page))

	page, err = svc.Search(ctx, SearchParams{Tier: "medium"})
	require.NoError(t, err)
	assert.Equal(t, []string{"swsh7-95"}, cardIDs(page))

	// low includes unpriced cards
	page, err = svc.Search(ctx, SearchParams{Tier: "low"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"swsh7-1", "swsh7-2"}, cardIDs(page))

	// an explicit price bound drops unpriced cards
	page, err = svc.Search(ctx, SearchParams{Tier: "low", MinPrice: price("0")})
	require.NoError(t, err)
	assert.Equal(t, []string{"swsh7-1"}, cardIDs(page))
}

func TestSearchSortsAndPages(t *testing.T) {
	_, _, svc := newCardFixture()

	page, err := svc.Search(context.Background(), SearchParams{Sort: "price", Order: "desc", PageSize: 2, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)
	assert.Equal(t, []string{"swsh7-215", "swsh7-95"}, cardIDs(page))

	page, err = svc.Search(context.Background(), SearchParams{Sort: "price", Order: "desc", PageSize: 2, Page: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"swsh7-1", "swsh7-2"}, cardIDs(page), "unpriced cards sort last")

	page, err = svc.Search(context.Background(), SearchParams{Query: "umbreon", MaxPrice: price("12.00")})
	require.NoError(t, err)
	assert.Equal(t, []string{"swsh7-95"}, cardIDs(page), "max price is inclusive")
}

func TestSearchUsesCache(t *testing.T) {
	db, cache, svc := newCardFixture()
	ctx := context.Background()

	first, err := svc.Search(ctx, SearchParams{Query: "umbreon"})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Total)
	assert.Equal(t, 1, cache.Len())

	db.AddCard(models.Card{ID: "swsh7-188", SetID: "swsh7", Name: "Umbreon V", Era: "swsh"})
	again, err := svc.Search(ctx, SearchParams{Query: "umbreon"})
	require.NoError(t, err)
	assert.Equal(t, 2, again.Total)

	cache.Purge(ctx)
	fresh, err := svc.Search(ctx, SearchParams{Query: "umbreon"})
	require.NoError(t, err)
	assert.Equal(t, 3, fresh.Total)
}

func TestSearchEmptyPage(t *testing.T) {
	_, _, svc := newCardFixture()
	page, err := svc.Search(context.Background(), SearchParams{Query: "charizard"})
	require.NoError(t, err)
	assert.NotNil(t, page.Cards)
	assert.Zero(t, page.Total)
}

func TestGetCardDetail(t *testing.T) {
	db, _, svc := newCardFixture()
	ctx := context.Background()
	require.NoError(t, db.SaveRefresh(ctx, "swsh7-95", storetest.Price("13.00"), []models.Variation{
		{Kind: "holofoil", Market: storetest.Price("13.00")},
	}, time.Now()))

	detail, err := svc.GetCard(ctx, "swsh7-95")
	require.NoError(t, err)
	require.NotNil(t, detail.Set)
	assert.Equal(t, "Evolving Skies", detail.Set.Name)
	assert.Len(t, detail.Variations, 1)
	assert.Len(t, detail.History, 1)

	detail, err = svc.GetCard(ctx, "swsh7-1")
	require.NoError(t, err)
	assert.NotNil(t, detail.Variations)
	assert.NotNil(t, detail.History)

	_, err = svc.GetCard(ctx, "nope")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListSets(t *testing.T) {
	_, _, svc := newCardFixture()

	sets, err := svc.ListSets(context.Background(), "SWSH")
	require.NoError(t, err)
	require.Len(t, sets, 1)
	assert.Equal(t, 4, sets[0].CardCount)

	sets, err = svc.ListSets(context.Background(), "neo")
	require.NoError(t, err)
	assert.NotNil(t, sets)
	assert.Empty(t, sets)

	_, err = svc.ListSets(context.Background(), "modern")
	assert.ErrorIs(t, err, models.ErrInvalidInput)
}
