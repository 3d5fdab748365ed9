// Package storetest holds in-memory repositories and a scripted card source
// for exercising the inventory services without Postgres or the card API.
package storetest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/avvvet/pokecard-services/internal/cardapi"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/shopspring/decimal"
)

// Store implements the card, set, price, listing, user and stats
// repositories over maps.
type Store struct {
	mu         sync.Mutex
	Cards      map[string]models.Card
	Sets       map[string]models.Set
	Variations map[string][]models.Variation
	History    []models.PricePoint
	Listings   map[int64]models.Listing
	Users      map[int64]models.User
	nextID     int64

	// Err, when set, is returned by every call.
	Err error
}

func New() *Store {
	return &Store{
		Cards:      make(map[string]models.Card),
		Sets:       make(map[string]models.Set),
		Variations: make(map[string][]models.Variation),
		Listings:   make(map[int64]models.Listing),
		Users:      make(map[int64]models.User),
	}
}

func Price(s string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(s))
}

// AddCard stores c as is, bypassing SaveCard.
func (s *Store) AddCard(c models.Card) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Cards[c.ID] = c
}

func (s *Store) AddUser(u models.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Users[u.UserId] = u
}

func (s *Store) SaveCard(_ context.Context, card *models.Card, variations []models.Variation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}

	now := time.Now().UTC()
	if old, ok := s.Cards[card.ID]; ok {
		card.CreatedAt = old.CreatedAt
		if !card.MarketPrice.Valid {
			card.MarketPrice = old.MarketPrice
			card.PriceUpdatedAt = old.PriceUpdatedAt
		}
	} else {
		card.CreatedAt = now
	}
	if card.MarketPrice.Valid && card.PriceUpdatedAt == nil {
		card.PriceUpdatedAt = &now
	}
	card.UpdatedAt = now
	s.Cards[card.ID] = *card
	s.upsertVariations(card.ID, variations, now)
	return nil
}

func (s *Store) upsertVariations(cardID string, variations []models.Variation, at time.Time) {
	existing := s.Variations[cardID]
	for _, v := range variations {
		v.CardID = cardID
		v.UpdatedAt = at
		replaced := false
		for i := range existing {
			if existing[i].Kind == v.Kind {
				v.ID = existing[i].ID
				existing[i] = v
				replaced = true
			}
		}
		if !replaced {
			s.nextID++
			v.ID = s.nextID
			existing = append(existing, v)
		}
	}
	sort.Slice(existing, func(i, j int) bool { return existing[i].Kind < existing[j].Kind })
	s.Variations[cardID] = existing
}

func (s *Store) GetCard(_ context.Context, id string) (*models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	c, ok := s.Cards[id]
	if !ok {
		return nil, fmt.Errorf("card %s: %w", id, models.ErrNotFound)
	}
	return &c, nil
}

func inRange(p decimal.NullDecimal, min, max, maxBelow decimal.NullDecimal, includeUnpriced bool) bool {
	if !min.Valid && !max.Valid && !maxBelow.Valid {
		return true
	}
	if !p.Valid {
		return includeUnpriced
	}
	if min.Valid && p.Decimal.LessThan(min.Decimal) {
		return false
	}
	if max.Valid && p.Decimal.GreaterThan(max.Decimal) {
		return false
	}
	if maxBelow.Valid && !p.Decimal.LessThan(maxBelow.Decimal) {
		return false
	}
	return true
}

func (s *Store) SearchCards(_ context.Context, f models.CardFilter) ([]models.Card, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, 0, s.Err
	}

	q := strings.ToLower(f.Query)
	var matched []models.Card
	for _, c := range s.Cards {
		switch {
		case q != "" && !strings.Contains(strings.ToLower(c.Name), q) && !strings.Contains(strings.ToLower(c.ID), q):
		case f.SetID != "" && c.SetID != f.SetID:
		case f.RarityCode != "" && c.RarityCode != f.RarityCode:
		case f.Era != "" && c.Era != f.Era:
		case !inRange(c.MarketPrice, f.MinPrice, f.MaxPrice, f.MaxPriceBelow, f.IncludeUnpriced):
		default:
			matched = append(matched, c)
		}
	}

	compare := func(a, b models.Card) int {
		switch f.Sort {
		case "price":
			return a.MarketPrice.Decimal.Cmp(b.MarketPrice.Decimal)
		case "number":
			return strings.Compare(a.Number, b.Number)
		case "updated":
			return a.UpdatedAt.Compare(b.UpdatedAt)
		}
		return strings.Compare(a.Name, b.Name)
	}
	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if f.Sort == "price" && a.MarketPrice.Valid != b.MarketPrice.Valid {
			return a.MarketPrice.Valid // nulls last in both directions
		}
		c := compare(a, b)
		if f.Desc {
			c = -c
		}
		if c != 0 {
			return c < 0
		}
		return a.ID < b.ID
	})

	total := len(matched)
	start := min(f.Offset, total)
	end := total
	if f.Limit > 0 {
		end = min(start+f.Limit, total)
	}
	return matched[start:end], total, nil
}

func (s *Store) ListCardsForPricing(_ context.Context, f models.PricingFilter) ([]models.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}

	var out []models.Card
	for _, c := range s.Cards {
		if !inRange(c.MarketPrice, f.MinPrice, decimal.NullDecimal{}, f.MaxPriceBelow, f.IncludeUnpriced) {
			continue
		}
		if f.UpdatedBefore != nil && c.PriceUpdatedAt != nil && !c.PriceUpdatedAt.Before(*f.UpdatedBefore) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].PriceUpdatedAt, out[j].PriceUpdatedAt
		switch {
		case a == nil && b != nil:
			return true
		case a != nil && b == nil:
			return false
		case a != nil && b != nil && !a.Equal(*b):
			return a.Before(*b)
		}
		return out[i].ID < out[j].ID
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *Store) ListVariations(_ context.Context, cardID string) ([]models.Variation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	return append([]models.Variation(nil), s.Variations[cardID]...), nil
}

func (s *Store) UpsertSet(_ context.Context, set *models.Set) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	now := time.Now().UTC()
	if old, ok := s.Sets[set.ID]; ok {
		set.CreatedAt = old.CreatedAt
	} else {
		set.CreatedAt = now
	}
	set.UpdatedAt = now
	s.Sets[set.ID] = *set
	return nil
}

func (s *Store) GetSet(_ context.Context, id string) (*models.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	set, ok := s.Sets[id]
	if !ok {
		return nil, fmt.Errorf("set %s: %w", id, models.ErrNotFound)
	}
	set.CardCount = s.cardCount(id)
	return &set, nil
}

func (s *Store) cardCount(setID string) int {
	n := 0
	for _, c := range s.Cards {
		if c.SetID == setID {
			n++
		}
	}
	return n
}

func (s *Store) ListSets(_ context.Context, era string) ([]models.Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []models.Set
	for _, set := range s.Sets {
		if era != "" && set.Era != era {
			continue
		}
		set.CardCount = s.cardCount(set.ID)
		out = append(out, set)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) SaveRefresh(_ context.Context, cardID string, market decimal.NullDecimal, variations []models.Variation, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	c, ok := s.Cards[cardID]
	if !ok {
		return fmt.Errorf("card %s: %w", cardID, models.ErrNotFound)
	}
	if market.Valid {
		c.MarketPrice = market
	}
	c.PriceUpdatedAt = &at
	s.Cards[cardID] = c
	s.upsertVariations(cardID, variations, at)
	for _, v := range variations {
		if v.Market.Valid {
			s.nextID++
			s.History = append(s.History, models.PricePoint{
				ID: s.nextID, CardID: cardID, Variation: v.Kind, Market: v.Market.Decimal, RecordedAt: at,
			})
		}
	}
	return nil
}

func (s *Store) ListHistory(_ context.Context, cardID string, limit int) ([]models.PricePoint, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []models.PricePoint
	for i := len(s.History) - 1; i >= 0 && len(out) < limit; i-- {
		if s.History[i].CardID == cardID {
			out = append(out, s.History[i])
		}
	}
	return out, nil
}

func (s *Store) CreateListing(_ context.Context, l *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.nextID++
	l.ID = s.nextID
	l.CreatedAt = time.Now().UTC()
	l.UpdatedAt = l.CreatedAt
	s.Listings[l.ID] = *l
	return nil
}

func (s *Store) GetListing(_ context.Context, id int64) (*models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	l, ok := s.Listings[id]
	if !ok {
		return nil, fmt.Errorf("listing %d: %w", id, models.ErrNotFound)
	}
	return &l, nil
}

func (s *Store) UpdateListing(_ context.Context, l *models.Listing) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.Listings[l.ID]; !ok {
		return fmt.Errorf("listing %d: %w", l.ID, models.ErrNotFound)
	}
	l.UpdatedAt = time.Now().UTC()
	s.Listings[l.ID] = *l
	return nil
}

func (s *Store) DeleteListing(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	if _, ok := s.Listings[id]; !ok {
		return fmt.Errorf("listing %d: %w", id, models.ErrNotFound)
	}
	delete(s.Listings, id)
	return nil
}

func (s *Store) ListListings(_ context.Context, f models.ListingFilter) ([]models.Listing, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	var out []models.Listing
	for _, l := range s.Listings {
		switch {
		case f.UserID > 0 && l.UserID != f.UserID:
		case f.CardID != "" && l.CardID != f.CardID:
		case f.Status != "" && l.Status != f.Status:
		default:
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	start := min(f.Offset, len(out))
	end := len(out)
	if f.Limit > 0 {
		end = min(start+f.Limit, len(out))
	}
	return out[start:end], nil
}

func (s *Store) GetByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	u, ok := s.Users[id]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", id, models.ErrNotFound)
	}
	return &u, nil
}

func (s *Store) InventoryStats(_ context.Context, highMin, mediumMin decimal.Decimal) (models.InventoryStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return models.InventoryStats{}, s.Err
	}
	st := models.InventoryStats{Cards: len(s.Cards), Sets: len(s.Sets), Listings: len(s.Listings)}
	for _, c := range s.Cards {
		switch {
		case !c.MarketPrice.Valid:
			st.Unpriced++
			st.LowTier++
		case c.MarketPrice.Decimal.GreaterThanOrEqual(highMin):
			st.HighTier++
		case c.MarketPrice.Decimal.GreaterThanOrEqual(mediumMin):
			st.MediumTier++
		default:
			st.LowTier++
		}
	}
	for _, vs := range s.Variations {
		st.Variations += len(vs)
	}
	for _, l := range s.Listings {
		if l.Status == models.ListingActive {
			st.ActiveListings++
		}
	}
	return st, nil
}

// Issues is a scripted ValidationRepository: each check returns its entry.
type Issues struct {
	Counts  map[string]int
	Samples map[string][]string
	Errs    map[string]error

	mu     sync.Mutex
	Cutoff time.Time
}

func (v *Issues) CountIssues(_ context.Context, check string, staleBefore time.Time, sampleLimit int) (int, []string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if check == "cards_stale_price" {
		v.Cutoff = staleBefore
	}
	if err := v.Errs[check]; err != nil {
		return 0, nil, err
	}
	samples := v.Samples[check]
	if len(samples) > sampleLimit {
		samples = samples[:sampleLimit]
	}
	return v.Counts[check], samples, nil
}

// Source is a scripted card API.
type Source struct {
	mu         sync.Mutex
	Sets       []cardapi.Set
	SetCards   map[string][]cardapi.Card
	CardsByID  map[string]cardapi.Card
	Errs       map[string]error // keyed by set or card id
	Calls      int
	SetFetches []time.Time
	// OnGetCard runs before each GetCard lookup, under the source lock.
	OnGetCard func(id string)
}

func (f *Source) ListAllSets(context.Context) ([]cardapi.Set, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if err := f.Errs["sets"]; err != nil {
		return nil, err
	}
	return f.Sets, nil
}

func (f *Source) ListAllSetCards(_ context.Context, setID string) ([]cardapi.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	f.SetFetches = append(f.SetFetches, time.Now())
	if err := f.Errs[setID]; err != nil {
		return nil, err
	}
	return f.SetCards[setID], nil
}

func (f *Source) GetCard(ctx context.Context, id string) (*cardapi.Card, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls++
	if f.OnGetCard != nil {
		f.OnGetCard(id)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.Errs[id]; err != nil {
		return nil, err
	}
	c, ok := f.CardsByID[id]
	if !ok {
		return nil, cardapi.ErrNotFound
	}
	return &c, nil
}

// Events records published events.
type Events struct {
	mu    sync.Mutex
	Types []string
	Data  []any
}

func (e *Events) PublishEvent(eventType string, data any) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Types = append(e.Types, eventType)
	e.Data = append(e.Data, data)
}

func (e *Events) Count(eventType string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, t := range e.Types {
		if t == eventType {
			n++
		}
	}
	return n
}
