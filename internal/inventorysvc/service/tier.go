package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/shopspring/decimal"
)

type Tier string

const (
	TierHigh   Tier = "high"
	TierMedium Tier = "medium"
	TierLow    Tier = "low"
	TierAll    Tier = "all"
)

var AllTiers = []Tier{TierHigh, TierMedium, TierLow}

func (t Tier) Weight() int {
	switch t {
	case TierHigh:
		return 3
	case TierMedium:
		return 2
	case TierLow:
		return 1
	}
	return 0
}

func ParseTier(s string) (Tier, error) {
	switch t := Tier(strings.ToLower(strings.TrimSpace(s))); t {
	case TierHigh, TierMedium, TierLow, TierAll:
		return t, nil
	case "":
		return TierAll, nil
	}
	return "", fmt.Errorf("%w: unknown tier %q", models.ErrInvalidInput, s)
}

// Thresholds split market prices into tiers: price >= HighMin is high,
// price >= MediumMin is medium, anything lower or unpriced is low.
type Thresholds struct {
	HighMin   decimal.Decimal
	MediumMin decimal.Decimal
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		HighMin:   decimal.NewFromInt(50),
		MediumMin: decimal.NewFromInt(10),
	}
}

func (th Thresholds) Validate() error {
	if th.MediumMin.IsNegative() || !th.HighMin.GreaterThan(th.MediumMin) {
		return fmt.Errorf("%w: tier thresholds must satisfy 0 <= medium < high", models.ErrInvalidInput)
	}
	return nil
}

func TierFor(price decimal.NullDecimal, th Thresholds) Tier {
	if !price.Valid {
		return TierLow
	}
	switch {
	case price.Decimal.GreaterThanOrEqual(th.HighMin):
		return TierHigh
	case price.Decimal.GreaterThanOrEqual(th.MediumMin):
		return TierMedium
	}
	return TierLow
}

type priceRange struct {
	min             decimal.NullDecimal
	maxBelow        decimal.NullDecimal
	includeUnpriced bool
}

func (th Thresholds) rangeOf(t Tier) priceRange {
	switch t {
	case TierHigh:
		return priceRange{min: decimal.NewNullDecimal(th.HighMin)}
	case TierMedium:
		return priceRange{min: decimal.NewNullDecimal(th.MediumMin), maxBelow: decimal.NewNullDecimal(th.HighMin)}
	case TierLow:
		return priceRange{maxBelow: decimal.NewNullDecimal(th.MediumMin), includeUnpriced: true}
	}
	return priceRange{includeUnpriced: true}
}

// RefreshAges is how old a tier's price may get before the scheduler
// queues it again.
type RefreshAges struct {
	High   time.Duration
	Medium time.Duration
	Low    time.Duration
}

func DefaultRefreshAges() RefreshAges {
	return RefreshAges{High: 6 * time.Hour, Medium: 24 * time.Hour, Low: 7 * 24 * time.Hour}
}

func (r RefreshAges) For(t Tier) time.Duration {
	switch t {
	case TierHigh:
		return r.High
	case TierMedium:
		return r.Medium
	}
	return r.Low
}
