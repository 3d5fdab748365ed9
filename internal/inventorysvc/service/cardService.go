package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

const (
	DefaultPageSize = 24
	MaxPageSize     = 100
	historyPoints   = 30
)

var sortColumns = map[string]bool{"name": true, "number": true, "price": true, "updated": true}

// SearchParams are the card browser filters as sent by the dashboard.
type SearchParams struct {
	Query      string
	SetID      string
	RarityCode string
	Era        string
	Tier       string
	MinPrice   decimal.NullDecimal
	MaxPrice   decimal.NullDecimal // inclusive
	Sort       string
	Order      string
	Page       int
	PageSize   int
}

// Normalize applies defaults and bounds and rejects unknown enum values.
func (p *SearchParams) Normalize() error {
	p.Query = strings.TrimSpace(p.Query)
	p.SetID = strings.TrimSpace(p.SetID)
	p.RarityCode = strings.ToUpper(strings.TrimSpace(p.RarityCode))
	p.Era = strings.ToLower(strings.TrimSpace(p.Era))
	p.Sort = strings.ToLower(strings.TrimSpace(p.Sort))
	p.Order = strings.ToLower(strings.TrimSpace(p.Order))

	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	if p.Sort == "" {
		p.Sort = "name"
	}
	if !sortColumns[p.Sort] {
		return fmt.Errorf("%w: unknown sort %q", models.ErrInvalidInput, p.Sort)
	}
	if p.Order == "" {
		p.Order = "asc"
	}
	if p.Order != "asc" && p.Order != "desc" {
		return fmt.Errorf("%w: order must be asc or desc", models.ErrInvalidInput)
	}
	if p.Era != "" && !ValidEra(p.Era) {
		return fmt.Errorf("%w: unknown era %q", models.ErrInvalidInput, p.Era)
	}
	if p.Tier != "" {
		t, err := ParseTier(p.Tier)
		if err != nil {
			return err
		}
		p.Tier = string(t)
		if t == TierAll {
			p.Tier = ""
		}
	}
	if p.MinPrice.Valid && p.MaxPrice.Valid && p.MinPrice.Decimal.GreaterThan(p.MaxPrice.Decimal) {
		return fmt.Errorf("%w: min_price above max_price", models.ErrInvalidInput)
	}
	return nil
}

// Key is the cache key: every field in a fixed order.
func (p SearchParams) Key() string {
	return fmt.Sprintf("q=%s|set=%s|rarity=%s|era=%s|tier=%s|min=%s|max=%s|sort=%s|order=%s|page=%d|size=%d",
		p.Query, p.SetID, p.RarityCode, p.Era, p.Tier,
		nullString(p.MinPrice), nullString(p.MaxPrice), p.Sort, p.Order, p.Page, p.PageSize)
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

type CardService struct {
	cards  CardRepository
	sets   SetRepository
	prices PriceRepository
	cache  SearchCache
	th     Thresholds
}

func NewCardService(cards CardRepository, sets SetRepository, prices PriceRepository, cache SearchCache, th Thresholds) *CardService {
	return &CardService{cards: cards, sets: sets, prices: prices, cache: cache, th: th}
}

func (s *CardService) filterFor(p SearchParams) models.CardFilter {
	f := models.CardFilter{
		Query:      p.Query,
		SetID:      p.SetID,
		RarityCode: p.RarityCode,
		Era:        p.Era,
		Sort:       p.Sort,
		Desc:       p.Order == "desc",
		Limit:      p.PageSize,
		Offset:     (p.Page - 1) * p.PageSize,
	}
	if p.Tier != "" {
		r := s.th.rangeOf(Tier(p.Tier))
		f.MinPrice, f.MaxPriceBelow, f.IncludeUnpriced = r.min, r.maxBelow, r.includeUnpriced
	}
	if p.MinPrice.Valid {
		if !f.MinPrice.Valid || p.MinPrice.Decimal.GreaterThan(f.MinPrice.Decimal) {
			f.MinPrice = p.MinPrice
		}
		f.IncludeUnpriced = false
	}
	if p.MaxPrice.Valid {
		f.MaxPrice = p.MaxPrice
		f.IncludeUnpriced = false
	}
	return f
}

// Search returns one page of cards, served from the cache when possible.
func (s *CardService) Search(ctx context.Context, p SearchParams) (*models.CardPage, error) {
	if err := p.Normalize(); err != nil {
		return nil, err
	}
	key := p.Key()
	if s.cache != nil {
		if page, ok := s.cache.Get(ctx, key); ok {
			return page, nil
		}
	}

	cards, total, err := s.cards.SearchCards(ctx, s.filterFor(p))
	if err != nil {
		return nil, fmt.Errorf("search cards: %w", err)
	}
	if cards == nil {
		cards = []models.Card{}
	}
	page := &models.CardPage{Cards: cards, Page: p.Page, PageSize: p.PageSize, Total: total}
	if s.cache != nil {
		s.cache.Set(ctx, key, page)
	}
	return page, nil
}

func (s *CardService) GetCard(ctx context.Context, id string) (*models.CardDetail, error) {
	card, err := s.cards.GetCard(ctx, id)
	if err != nil {
		return nil, err
	}
	detail := &models.CardDetail{Card: *card, Variations: []models.Variation{}, History: []models.PricePoint{}}

	if set, err := s.sets.GetSet(ctx, card.SetID); err == nil {
		detail.Set = set
	} else {
		log.Debugf("card %s: set %s not loaded: %s", id, card.SetID, err)
	}

	vars, err := s.cards.ListVariations(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list variations: %w", err)
	}
	if vars != nil {
		detail.Variations = vars
	}

	hist, err := s.prices.ListHistory(ctx, id, historyPoints)
	if err != nil {
		return nil, fmt.Errorf("list price history: %w", err)
	}
	if hist != nil {
		detail.History = hist
	}
	return detail, nil
}

func (s *CardService) ListSets(ctx context.Context, era string) ([]models.Set, error) {
	era = strings.ToLower(strings.TrimSpace(era))
	if era != "" && !ValidEra(era) {
		return nil, fmt.Errorf("%w: unknown era %q", models.ErrInvalidInput, era)
	}
	sets, err := s.sets.ListSets(ctx, era)
	if err != nil {
		return nil, err
	}
	if sets == nil {
		sets = []models.Set{}
	}
	return sets, nil
}

func (s *CardService) GetSet(ctx context.Context, id string) (*models.Set, error) {
	return s.sets.GetSet(ctx, id)
}
