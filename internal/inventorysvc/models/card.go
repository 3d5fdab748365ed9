package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Card mirrors one printed card from the card API. ID is the vendor card id
// (e.g. "sv3-125").
type Card struct {
	ID             string              `json:"id"`
	SetID          string              `json:"set_id"`
	Name           string              `json:"name"`
	Number         string              `json:"number"`
	Supertype      string              `json:"supertype"`
	Subtypes       []string            `json:"subtypes"`
	Rarity         string              `json:"rarity"`
	RarityCode     string              `json:"rarity_code"`
	Era            string              `json:"era"`
	Artist         string              `json:"artist,omitempty"`
	ImageSmall     string              `json:"image_small,omitempty"`
	ImageLarge     string              `json:"image_large,omitempty"`
	MarketPrice    decimal.NullDecimal `json:"market_price"`
	PriceUpdatedAt *time.Time          `json:"price_updated_at,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// Variation is a printing variant of a card (normal, holofoil, reverseHolofoil...)
// with its own market prices.
type Variation struct {
	ID        int64               `json:"id"`
	CardID    string              `json:"card_id"`
	Kind      string              `json:"kind"`
	Low       decimal.NullDecimal `json:"low"`
	Mid       decimal.NullDecimal `json:"mid"`
	High      decimal.NullDecimal `json:"high"`
	Market    decimal.NullDecimal `json:"market"`
	UpdatedAt time.Time           `json:"updated_at"`
}

type CardDetail struct {
	Card
	Set        *Set         `json:"set,omitempty"`
	Variations []Variation  `json:"variations"`
	History    []PricePoint `json:"history"`
}

type CardPage struct {
	Cards    []Card `json:"cards"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Total    int    `json:"total"`
}

// CardFilter is the store-level query built from SearchParams once tier and
// paging have been resolved.
type CardFilter struct {
	Query           string
	SetID           string
	RarityCode      string
	Era             string
	MinPrice        decimal.NullDecimal // inclusive
	MaxPrice        decimal.NullDecimal // inclusive
	MaxPriceBelow   decimal.NullDecimal // exclusive
	IncludeUnpriced bool
	Sort            string
	Desc            bool
	Limit           int
	Offset          int
}

// PricingFilter selects cards to push onto the price queue.
type PricingFilter struct {
	MinPrice        decimal.NullDecimal
	MaxPriceBelow   decimal.NullDecimal
	IncludeUnpriced bool
	UpdatedBefore   *time.Time
	Limit           int
}
