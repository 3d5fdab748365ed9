package store

import (
	"context"
	"fmt"
	"time"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const cardColumns = `c.id, c.set_id, c.name, c.number, c.supertype, c.subtypes, c.rarity, c.rarity_code,
	c.era, c.artist, c.image_small, c.image_large, c.market_price, c.price_updated_at, c.created_at, c.updated_at`

var cardSorts = map[string]string{
	"name":    "c.name",
	"number":  "c.number",
	"price":   "c.market_price",
	"updated": "c.updated_at",
}

type CardStore struct {
	db *pgxpool.Pool
}

func NewCardStore(db *pgxpool.Pool) *CardStore {
	return &CardStore{db: db}
}

func scanCard(row pgx.Row, c *models.Card) error {
	return row.Scan(
		&c.ID,
		&c.SetID,
		&c.Name,
		&c.Number,
		&c.Supertype,
		&c.Subtypes,
		&c.Rarity,
		&c.RarityCode,
		&c.Era,
		&c.Artist,
		&c.ImageSmall,
		&c.ImageLarge,
		&c.MarketPrice,
		&c.PriceUpdatedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
}

func collectCards(rows pgx.Rows) ([]models.Card, error) {
	defer rows.Close()

	var cards []models.Card
	for rows.Next() {
		var c models.Card
		if err := scanCard(rows, &c); err != nil {
			return nil, fmt.Errorf("scan card row: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return cards, nil
}

// SaveCard upserts a card and its variations in one transaction. A sync that
// carries no price keeps the stored one.
func (s *CardStore) SaveCard(ctx context.Context, card *models.Card, variations []models.Variation) error {
	if card.Subtypes == nil {
		card.Subtypes = []string{}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	const query = `
INSERT INTO cards (id, set_id, name, number, supertype, subtypes, rarity, rarity_code, era, artist,
                   image_small, image_large, market_price, price_updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
        CASE WHEN $13::numeric IS NULL THEN NULL ELSE now() END)
ON CONFLICT (id) DO UPDATE SET
    set_id           = EXCLUDED.set_id,
    name             = EXCLUDED.name,
    number           = EXCLUDED.number,
    supertype        = EXCLUDED.supertype,
    subtypes         = EXCLUDED.subtypes,
    rarity           = EXCLUDED.rarity,
    rarity_code      = EXCLUDED.rarity_code,
    era              = EXCLUDED.era,
    artist           = EXCLUDED.artist,
    image_small      = EXCLUDED.image_small,
    image_large      = EXCLUDED.image_large,
    market_price     = COALESCE(EXCLUDED.market_price, cards.market_price),
    price_updated_at = COALESCE(EXCLUDED.price_updated_at, cards.price_updated_at),
    updated_at       = now()
RETURNING market_price, price_updated_at, created_at, updated_at
`
	err = tx.QueryRow(ctx, query,
		card.ID, card.SetID, card.Name, card.Number, card.Supertype, card.Subtypes, card.Rarity,
		card.RarityCode, card.Era, card.Artist, card.ImageSmall, card.ImageLarge, nullNumeric(card.MarketPrice),
	).Scan(&card.MarketPrice, &card.PriceUpdatedAt, &card.CreatedAt, &card.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert card %s: %w", card.ID, err)
	}

	if err := upsertVariations(ctx, tx, card.ID, variations, time.Now().UTC()); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit card %s: %w", card.ID, err)
	}
	return nil
}

func upsertVariations(ctx context.Context, tx pgx.Tx, cardID string, variations []models.Variation, at time.Time) error {
	if len(variations) == 0 {
		return nil
	}
	const query = `
INSERT INTO card_variations (card_id, kind, low, mid, high, market, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT ON CONSTRAINT unique_card_variation DO UPDATE SET
    low = EXCLUDED.low, mid = EXCLUDED.mid, high = EXCLUDED.high,
    market = EXCLUDED.market, updated_at = EXCLUDED.updated_at
`
	batch := &pgx.Batch{}
	for _, v := range variations {
		batch.Queue(query, cardID, v.Kind, nullNumeric(v.Low), nullNumeric(v.Mid),
			nullNumeric(v.High), nullNumeric(v.Market), at)
	}
	br := tx.SendBatch(ctx, batch)
	for _, v := range variations {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("upsert variation %s/%s: %w", cardID, v.Kind, err)
		}
	}
	return br.Close()
}

func (s *CardStore) GetCard(ctx context.Context, id string) (*models.Card, error) {
	query := `SELECT ` + cardColumns + ` FROM cards c WHERE c.id = $1`

	var card models.Card
	if err := scanCard(s.db.QueryRow(ctx, query, id), &card); err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("card %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get card: %w", err)
	}
	return &card, nil
}

func (s *CardStore) SearchCards(ctx context.Context, f models.CardFilter) ([]models.Card, int, error) {
	w := &where{}
	if f.Query != "" {
		p := w.arg(containsPattern(f.Query))
		w.add("(c.name ILIKE " + p + " OR c.id ILIKE " + p + ")")
	}
	if f.SetID != "" {
		w.add("c.set_id = " + w.arg(f.SetID))
	}
	if f.RarityCode != "" {
		w.add("c.rarity_code = " + w.arg(f.RarityCode))
	}
	if f.Era != "" {
		w.add("c.era = " + w.arg(f.Era))
	}
	w.price("c.market_price", f.MinPrice, f.MaxPrice, f.MaxPriceBelow, f.IncludeUnpriced)

	var total int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM cards c`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count cards: %w", err)
	}

	order, ok := cardSorts[f.Sort]
	if !ok {
		order = cardSorts["name"]
	}
	if f.Desc {
		order += " DESC NULLS LAST"
	} else {
		order += " ASC NULLS LAST"
	}

	query := `SELECT ` + cardColumns + ` FROM cards c` + w.String() +
		` ORDER BY ` + order + `, c.id LIMIT ` + w.arg(f.Limit) + ` OFFSET ` + w.arg(f.Offset)

	rows, err := s.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search cards: %w", err)
	}
	cards, err := collectCards(rows)
	if err != nil {
		return nil, 0, err
	}
	return cards, total, nil
}

// ListCardsForPricing returns cards in a price range, least recently priced
// (never priced first).
func (s *CardStore) ListCardsForPricing(ctx context.Context, f models.PricingFilter) ([]models.Card, error) {
	w := &where{}
	w.price("c.market_price", f.MinPrice, decimalNull, f.MaxPriceBelow, f.IncludeUnpriced)
	if f.UpdatedBefore != nil {
		w.add("(c.price_updated_at IS NULL OR c.price_updated_at < " + w.arg(*f.UpdatedBefore) + ")")
	}
	query := `SELECT ` + cardColumns + ` FROM cards c` + w.String() +
		` ORDER BY c.price_updated_at ASC NULLS FIRST, c.id LIMIT ` + w.arg(f.Limit)

	rows, err := s.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list cards for pricing: %w", err)
	}
	return collectCards(rows)
}

func (s *CardStore) ListVariations(ctx context.Context, cardID string) ([]models.Variation, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, card_id, kind, low, mid, high, market, updated_at
		FROM card_variations
		WHERE card_id = $1
		ORDER BY kind
	`, cardID)
	if err != nil {
		return nil, fmt.Errorf("list variations: %w", err)
	}
	defer rows.Close()

	var out []models.Variation
	for rows.Next() {
		var v models.Variation
		if err := rows.Scan(&v.ID, &v.CardID, &v.Kind, &v.Low, &v.Mid, &v.High, &v.Market, &v.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan variation: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
