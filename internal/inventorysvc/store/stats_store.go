package store

import (
	"context"
	"fmt"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type StatsStore struct {
	db *pgxpool.Pool
}

func NewStatsStore(db *pgxpool.Pool) *StatsStore {
	return &StatsStore{db: db}
}

// InventoryStats counts the catalog and listings. Unpriced cards fall in the
// low tier, matching how the price queue schedules them.
func (s *StatsStore) InventoryStats(ctx context.Context, highMin, mediumMin decimal.Decimal) (models.InventoryStats, error) {
	var st models.InventoryStats

	err := s.db.QueryRow(ctx, `
		SELECT
			count(*),
			count(*) FILTER (WHERE market_price IS NULL),
			count(*) FILTER (WHERE market_price >= $1),
			count(*) FILTER (WHERE market_price >= $2 AND market_price < $1),
			count(*) FILTER (WHERE market_price < $2 OR market_price IS NULL)
		FROM cards
	`, numeric(highMin), numeric(mediumMin)).Scan(
		&st.Cards,
		&st.Unpriced,
		&st.HighTier,
		&st.MediumTier,
		&st.LowTier,
	)
	if err != nil {
		return st, fmt.Errorf("card stats: %w", err)
	}

	err = s.db.QueryRow(ctx, `
		SELECT
			(SELECT count(*) FROM sets),
			(SELECT count(*) FROM card_variations),
			(SELECT count(*) FROM inventory_listings),
			(SELECT count(*) FROM inventory_listings WHERE status = 'active')
	`).Scan(&st.Sets, &st.Variations, &st.Listings, &st.ActiveListings)
	if err != nil {
		return st, fmt.Errorf("inventory stats: %w", err)
	}

	return st, nil
}
