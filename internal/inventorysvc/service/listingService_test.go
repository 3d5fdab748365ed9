package service

import (
	"context"
	"errors"
	"testing"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/storetest"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newListingFixture() (*storetest.Store, *ListingService) {
	db := storetest.New()
	db.AddUser(models.User{UserId: 7, Name: "shop", Role: "seller"})
	db.AddCard(models.Card{ID: "base1-4", SetID: "base1", Name: "Charizard"})
	return db, NewListingService(db, db, db)
}

func validListing() *models.Listing {
	return &models.Listing{UserID: 7, CardID: "base1-4", Condition: " lp ", Quantity: 2, Price: decimal.RequireFromString("350.00")}
}

func TestCreateListing(t *testing.T) {
	db, svc := newListingFixture()

	l := validListing()
	require.NoError(t, svc.Create(context.Background(), l))
	assert.NotZero(t, l.ID)
	assert.Equal(t, "LP", l.Condition)
	assert.Equal(t, models.ListingActive, l.Status)
	assert.Contains(t, db.Listings, l.ID)
}

func TestCreateListingRejects(t *testing.T) {
	_, svc := newListingFixture()

	cases := map[string]func(l *models.Listing){
		"no user":        func(l *models.Listing) { l.UserID = 0 },
		"no card":        func(l *models.Listing) { l.CardID = "" },
		"bad condition":  func(l *models.Listing) { l.Condition = "MINT" },
		"zero quantity":  func(l *models.Listing) { l.Quantity = 0 },
		"free":           func(l *models.Listing) { l.Price = decimal.Zero },
		"bad status":     func(l *models.Listing) { l.Status = "reserved" },
		"unknown user":   func(l *models.Listing) { l.UserID = 99 },
		"unknown card":   func(l *models.Listing) { l.CardID = "base1-999" },
		"negative price": func(l *models.Listing) { l.Price = decimal.NewFromInt(-1) },
	}
	for name, mutate := range cases {
		l := validListing()
		mutate(l)
		assert.ErrorIs(t, svc.Create(context.Background(), l), models.ErrInvalidInput, name)
	}
}

func TestCreateListingStoreError(t *testing.T) {
	db, svc := newListingFixture()
	db.Err = errors.New("boom")

	err := svc.Create(context.Background(), validListing())
	require.Error(t, err)
	assert.False(t, errors.Is(err, models.ErrInvalidInput))
}

func TestUpdateListing(t *testing.T) {
	_, svc := newListingFixture()
	ctx := context.Background()
	l := validListing()
	require.NoError(t, svc.Create(ctx, l))

	newPrice := decimal.RequireFromString("325.50")
	notes := "centering off"
	got, err := svc.Update(ctx, l.ID, models.ListingUpdate{Price: &newPrice, Notes: &notes})
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(newPrice))
	assert.Equal(t, notes, got.Notes)
	assert.Equal(t, models.ListingActive, got.Status)

	zero := 0
	got, err = svc.Update(ctx, l.ID, models.ListingUpdate{Quantity: &zero})
	require.NoError(t, err)
	assert.Equal(t, models.ListingSold, got.Status, "an active listing out of stock is sold")

	withdrawn := models.ListingWithdrawn
	got, err = svc.Update(ctx, l.ID, models.ListingUpdate{Status: &withdrawn})
	require.NoError(t, err)
	assert.Equal(t, models.ListingWithdrawn, got.Status)

	neg := -1
	_, err = svc.Update(ctx, l.ID, models.ListingUpdate{Quantity: &neg})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.Update(ctx, 404, models.ListingUpdate{Notes: &notes})
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestListAndDeleteListings(t *testing.T) {
	_, svc := newListingFixture()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Create(ctx, validListing()))
	}

	all, err := svc.List(ctx, models.ListingFilter{UserID: 7})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Greater(t, all[0].ID, all[2].ID, "newest first")

	page, err := svc.List(ctx, models.ListingFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Len(t, page, 1)

	_, err = svc.List(ctx, models.ListingFilter{Status: "reserved"})
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	require.NoError(t, svc.Delete(ctx, all[0].ID))
	assert.ErrorIs(t, svc.Delete(ctx, all[0].ID), models.ErrNotFound)

	none, err := svc.List(ctx, models.ListingFilter{CardID: "xy1-1"})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestListListingsClampsLimit(t *testing.T) {
	_, svc := newListingFixture()
	ctx := context.Background()
	for i := 0; i < MaxPageSize+10; i++ {
		require.NoError(t, svc.Create(ctx, validListing()))
	}

	capped, err := svc.List(ctx, models.ListingFilter{Limit: 1000})
	require.NoError(t, err)
	assert.Len(t, capped, MaxPageSize)

	def, err := svc.List(ctx, models.ListingFilter{})
	require.NoError(t, err)
	assert.Len(t, def, DefaultPageSize)
}
