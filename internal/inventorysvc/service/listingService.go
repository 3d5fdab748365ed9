package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
)

var conditions = map[string]bool{"NM": true, "LP": true, "MP": true, "HP": true, "DMG": true}

var listingStatuses = map[string]bool{
	models.ListingActive:    true,
	models.ListingSold:      true,
	models.ListingWithdrawn: true,
}

type ListingService struct {
	listings ListingRepository
	cards    CardRepository
	users    UserRepository
}

func NewListingService(listings ListingRepository, cards CardRepository, users UserRepository) *ListingService {
	return &ListingService{listings: listings, cards: cards, users: users}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{models.ErrInvalidInput}, args...)...)
}

func (s *ListingService) Create(ctx context.Context, l *models.Listing) error {
	l.Condition = strings.ToUpper(strings.TrimSpace(l.Condition))
	if l.Status == "" {
		l.Status = models.ListingActive
	}
	switch {
	case l.UserID <= 0:
		return invalid("user_id is required")
	case l.CardID == "":
		return invalid("card_id is required")
	case !conditions[l.Condition]:
		return invalid("condition must be one of NM, LP, MP, HP, DMG")
	case l.Quantity <= 0:
		return invalid("quantity must be positive")
	case !l.Price.IsPositive():
		return invalid("price must be positive")
	case !listingStatuses[l.Status]:
		return invalid("unknown status %q", l.Status)
	}

	if _, err := s.users.GetByID(ctx, l.UserID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return invalid("unknown user %d", l.UserID)
		}
		return err
	}
	if _, err := s.cards.GetCard(ctx, l.CardID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return invalid("unknown card %s", l.CardID)
		}
		return err
	}
	return s.listings.CreateListing(ctx, l)
}

func (s *ListingService) Get(ctx context.Context, id int64) (*models.Listing, error) {
	return s.listings.GetListing(ctx, id)
}

func (s *ListingService) Update(ctx context.Context, id int64, u models.ListingUpdate) (*models.Listing, error) {
	l, err := s.listings.GetListing(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Price != nil {
		if !u.Price.IsPositive() {
			return nil, invalid("price must be positive")
		}
		l.Price = *u.Price
	}
	if u.Quantity != nil {
		if *u.Quantity < 0 {
			return nil, invalid("quantity cannot be negative")
		}
		l.Quantity = *u.Quantity
	}
	if u.Status != nil {
		if !listingStatuses[*u.Status] {
			return nil, invalid("unknown status %q", *u.Status)
		}
		l.Status = *u.Status
	}
	if u.Notes != nil {
		l.Notes = *u.Notes
	}
	// an active listing needs stock
	if l.Status == models.ListingActive && l.Quantity == 0 {
		l.Status = models.ListingSold
	}
	if err := s.listings.UpdateListing(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *ListingService) Delete(ctx context.Context, id int64) error {
	return s.listings.DeleteListing(ctx, id)
}

func (s *ListingService) List(ctx context.Context, f models.ListingFilter) ([]models.Listing, error) {
	if f.Status != "" && !listingStatuses[f.Status] {
		return nil, invalid("unknown status %q", f.Status)
	}
	if f.Limit <= 0 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	out, err := s.listings.ListListings(ctx, f)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Listing{}
	}
	return out, nil
}
