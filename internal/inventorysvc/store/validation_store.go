package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type issueQuery struct {
	sql        string // selects one text column "id" per offending row
	usesCutoff bool   // sql references $1 as the stale cutoff
}

var issueQueries = map[string]issueQuery{
	"cards_missing_image": {sql: `SELECT id FROM cards WHERE image_small = '' AND image_large = ''`},
	"cards_missing_price": {sql: `SELECT id FROM cards WHERE market_price IS NULL`},
	"cards_stale_price": {
		sql:        `SELECT id FROM cards WHERE market_price IS NOT NULL AND (price_updated_at IS NULL OR price_updated_at < $1)`,
		usesCutoff: true,
	},
	"cards_orphaned_set":   {sql: `SELECT c.id FROM cards c LEFT JOIN sets s ON s.id = c.set_id WHERE s.id IS NULL`},
	"cards_unknown_rarity": {sql: `SELECT id FROM cards WHERE rarity_code = 'UNK'`},
	"duplicate_card_numbers": {sql: `
		SELECT set_id || '/' || number AS id
		FROM cards
		WHERE number <> ''
		GROUP BY set_id, number
		HAVING count(*) > 1`},
	"set_count_mismatch": {sql: `
		SELECT s.id
		FROM sets s
		LEFT JOIN cards c ON c.set_id = s.id
		GROUP BY s.id, s.total
		HAVING count(c.id) <> s.total`},
	"variations_orphaned": {sql: `
		SELECT v.card_id || '/' || v.kind AS id
		FROM card_variations v
		LEFT JOIN cards c ON c.id = v.card_id
		WHERE c.id IS NULL`},
	"listings_invalid": {sql: `
		SELECT l.id::text
		FROM inventory_listings l
		LEFT JOIN cards c ON c.id = l.card_id
		WHERE l.quantity < 0 OR l.price <= 0 OR c.id IS NULL
		   OR (l.status = 'active' AND l.quantity = 0)`},
}

type ValidationStore struct {
	db *pgxpool.Pool
}

func NewValidationStore(db *pgxpool.Pool) *ValidationStore {
	return &ValidationStore{db: db}
}

// CountIssues runs one named data-quality check and returns the number of
// offending rows plus up to sampleLimit of their ids.
func (s *ValidationStore) CountIssues(ctx context.Context, check string, staleBefore time.Time, sampleLimit int) (int, []string, error) {
	q, ok := issueQueries[check]
	if !ok {
		return 0, nil, fmt.Errorf("unknown check %q", check)
	}

	var args []any
	if q.usesCutoff {
		args = append(args, staleBefore)
	}

	var count int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM (`+q.sql+`) issues`, args...).Scan(&count); err != nil {
		return 0, nil, fmt.Errorf("count %s: %w", check, err)
	}
	if count == 0 || sampleLimit <= 0 {
		return count, nil, nil
	}

	limitArg := fmt.Sprintf("$%d", len(args)+1)
	rows, err := s.db.Query(ctx, `SELECT id FROM (`+q.sql+`) issues ORDER BY id LIMIT `+limitArg, append(args, sampleLimit)...)
	if err != nil {
		return 0, nil, fmt.Errorf("sample %s: %w", check, err)
	}
	defer rows.Close()

	samples := make([]string, 0, sampleLimit)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return 0, nil, fmt.Errorf("scan %s sample: %w", check, err)
		}
		samples = append(samples, id)
	}
	return count, samples, rows.Err()
}
