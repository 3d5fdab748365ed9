package store

import (
	"context"
	"fmt"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const listingColumns = `id, user_id, card_id, condition, quantity, price, status, notes, created_at, updated_at`

type ListingStore struct {
	db *pgxpool.Pool
}

func NewListingStore(db *pgxpool.Pool) *ListingStore {
	return &ListingStore{db: db}
}

func scanListing(row pgx.Row, l *models.Listing) error {
	return row.Scan(
		&l.ID,
		&l.UserID,
		&l.CardID,
		&l.Condition,
		&l.Quantity,
		&l.Price,
		&l.Status,
		&l.Notes,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
}

func (s *ListingStore) CreateListing(ctx context.Context, l *models.Listing) error {
	const query = `
INSERT INTO inventory_listings (user_id, card_id, condition, quantity, price, status, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created_at, updated_at
`
	err := s.db.QueryRow(ctx, query, l.UserID, l.CardID, l.Condition, l.Quantity,
		numeric(l.Price), l.Status, l.Notes).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if pgErr, ok := pgError(err); ok && pgErr.Code == pgForeignKeyViolation {
			return fmt.Errorf("%w: %s", models.ErrInvalidInput, pgErr.Message)
		}
		return fmt.Errorf("could not create listing: %w", err)
	}
	return nil
}

func (s *ListingStore) GetListing(ctx context.Context, id int64) (*models.Listing, error) {
	var l models.Listing
	err := scanListing(s.db.QueryRow(ctx, `SELECT `+listingColumns+` FROM inventory_listings WHERE id = $1`, id), &l)
	if err != nil {
		if isNoRows(err) {
			return nil, fmt.Errorf("listing %d: %w", id, models.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get listing: %w", err)
	}
	return &l, nil
}

func (s *ListingStore) UpdateListing(ctx context.Context, l *models.Listing) error {
	err := s.db.QueryRow(ctx, `
		UPDATE inventory_listings
		SET quantity = $2, price = $3, status = $4, notes = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at
	`, l.ID, l.Quantity, numeric(l.Price), l.Status, l.Notes).Scan(&l.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return fmt.Errorf("listing %d: %w", l.ID, models.ErrNotFound)
		}
		return fmt.Errorf("update listing %d: %w", l.ID, err)
	}
	return nil
}

func (s *ListingStore) DeleteListing(ctx context.Context, id int64) error {
	tag, err := s.db.Exec(ctx, `DELETE FROM inventory_listings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete listing %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("listing %d: %w", id, models.ErrNotFound)
	}
	return nil
}

func (s *ListingStore) ListListings(ctx context.Context, f models.ListingFilter) ([]models.Listing, error) {
	w := &where{}
	if f.UserID > 0 {
		w.add("user_id = " + w.arg(f.UserID))
	}
	if f.CardID != "" {
		w.add("card_id = " + w.arg(f.CardID))
	}
	if f.Status != "" {
		w.add("status = " + w.arg(f.Status))
	}
	query := `SELECT ` + listingColumns + ` FROM inventory_listings` + w.String() +
		` ORDER BY created_at DESC, id DESC LIMIT ` + w.arg(f.Limit) + ` OFFSET ` + w.arg(f.Offset)

	rows, err := s.db.Query(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var out []models.Listing
	for rows.Next() {
		var l models.Listing
		if err := scanListing(rows, &l); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}
