package store

import (
	"context"
	"fmt"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const setColumns = `s.id, s.name, s.series, s.era, s.printed_total, s.total, s.release_date,
	s.symbol_url, s.logo_url, (SELECT count(*) FROM cards c WHERE c.set_id = s.id), s.created_at, s.updated_at`

type SetStore struct {
	db *pgxpool.Pool
}

func NewSetStore(db *pgxpool.Pool) *SetStore {
	return &SetStore{db: db}
}

func scanSet(row pgx.Row, set *models.Set) error {
	return row.Scan(
		&set.ID,
		&set.Name,
		&set.Series,
		&set.Era,
		&set.PrintedTotal,
		&set.Total,
		&set.ReleaseDate,
		&set.SymbolURL,
		&set.LogoURL,
		&set.CardCount,
		&set.CreatedAt,
		&set.UpdatedAt,
	)
}

func (s *SetStore) UpsertSet(ctx context.Context, set *models.Set) error {
	const query = `
INSERT INTO sets (id, name, series, era, printed_total, total, release_date, symbol_url, logo_url)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
    name          = EXCLUDED.name,
    series        = EXCLUDED.series,
    era           = EXCLUDED.era,
    printed_total = EXCLUDED.printed_total,
    total         = EXCLUDED.total,
    release_date  = EXCLUDED.release_date,
    symbol_url    = EXCLUDED.symbol_url,
    logo_url      = EXCLUDED.logo_url,
    updated_at    = now()
RETURNING created_at, updated_at
`
	err := s.db.QueryRow(ctx, query, set.ID, set.Name, set.Series, set.Era, set.PrintedTotal,
		set.Total, set.ReleaseDate, set.SymbolURL, set.LogoURL).Scan(&set.CreatedAt, &set.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upsert set %s: %w", set.ID, err)
	}
	return nil
}

func (s *SetStore) GetSet(ctx context.Context, id string) (*models.Set, error) {
	var set models.Set
	err := scanSet(s.db.QueryRow(ctx, `SELECT `+setColumns+` FROM sets s WHERE s.id = $1`, id), &set)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("set %s: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get set: %w", err)
	}
	return &set, nil
}

func (s *SetStore) ListSets(ctx context.Context, era string) ([]models.Set, error) {
	w := &where{}
	if era != "" {
		w.add("s.era = " + w.arg(era))
	}
	query := `SELECT ` + setColumns + ` FROM sets s` + w.String() + ` ORDER BY s.release_date DESC NULLS LAST, s.id`

	rows, err := s.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}
	defer rows.Close()

	var sets []models.Set
	for rows.Next() {
		var set models.Set
		if err := scanSet(rows, &set); err != nil {
			return nil, fmt.Errorf("scan set row: %w", err)
		}
		sets = append(sets, set)
	}
	return sets, rows.Err()
}
