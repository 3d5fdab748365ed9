package store

import (
	"context"
	"fmt"
	"time"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

type PriceStore struct {
	db *pgxpool.Pool
}

func NewPriceStore(db *pgxpool.Pool) *PriceStore {
	return &PriceStore{db: db}
}

// SaveRefresh stores a fresh price for a card: headline price, variation
// prices and one history row per priced variation, atomically.
func (s *PriceStore) SaveRefresh(ctx context.Context, cardID string, market decimal.NullDecimal, variations []models.Variation, at time.Time) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE cards
		SET market_price = COALESCE($2, market_price), price_updated_at = $3, updated_at = now()
		WHERE id = $1
	`, cardID, nullNumeric(market), at)
	if err != nil {
		return fmt.Errorf("update price of %s: %w", cardID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("card %s: %w", cardID, models.ErrNotFound)
	}

	if err := upsertVariations(ctx, tx, cardID, variations, at); err != nil {
		return err
	}

	var rows [][]any
	for _, v := range variations {
		if v.Market.Valid {
			rows = append(rows, []any{cardID, v.Kind, numeric(v.Market.Decimal), at})
		}
	}
	if len(rows) > 0 {
		_, err = tx.CopyFrom(ctx,
			pgx.Identifier{"price_history"},
			[]string{"card_id", "variation", "market", "recorded_at"},
			pgx.CopyFromRows(rows),
		)
		if err != nil {
			return fmt.Errorf("record price history of %s: %w", cardID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit price of %s: %w", cardID, err)
	}
	return nil
}

func (s *PriceStore) ListHistory(ctx context.Context, cardID string, limit int) ([]models.PricePoint, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, card_id, variation, market, recorded_at
		FROM price_history
		WHERE card_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2
	`, cardID, limit)
	if err != nil {
		return nil, fmt.Errorf("list price history: %w", err)
	}
	defer rows.Close()

	var out []models.PricePoint
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.ID, &p.CardID, &p.Variation, &p.Market, &p.RecordedAt); err != nil {
			return nil, fmt.Errorf("scan price point: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
