package cardapi

import (
	"time"

	"github.com/shopspring/decimal"
)

// Page is the envelope every list endpoint answers with.
type Page[T any] struct {
	Data       []T `json:"data"`
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	Count      int `json:"count"`
	TotalCount int `json:"totalCount"`
}

type single[T any] struct {
	Data T `json:"data"`
}

type Set struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Series       string    `json:"series"`
	PrintedTotal int       `json:"printedTotal"`
	Total        int       `json:"total"`
	PtcgoCode    string    `json:"ptcgoCode,omitempty"`
	ReleaseDate  string    `json:"releaseDate"` // 2006/01/02
	UpdatedAt    string    `json:"updatedAt"`
	Images       SetImages `json:"images"`
}

type SetImages struct {
	Symbol string `json:"symbol"`
	Logo   string `json:"logo"`
}

// Released parses ReleaseDate, returning nil when absent or malformed.
func (s Set) Released() *time.Time {
	if s.ReleaseDate == "" {
		return nil
	}
	t, err := time.Parse("2006/01/02", s.ReleaseDate)
	if err != nil {
		return nil
	}
	return &t
}

type Card struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Supertype string     `json:"supertype"`
	Subtypes  []string   `json:"subtypes"`
	Number    string     `json:"number"`
	Artist    string     `json:"artist"`
	Rarity    string     `json:"rarity"`
	Set       Set        `json:"set"`
	Images    CardImages `json:"images"`
	TCGPlayer *Market    `json:"tcgplayer,omitempty"`
}

type CardImages struct {
	Small string `json:"small"`
	Large string `json:"large"`
}

// Market carries per-variant prices keyed by variant name
// (normal, holofoil, reverseHolofoil, 1stEditionHolofoil, ...).
type Market struct {
	URL       string                `json:"url"`
	UpdatedAt string                `json:"updatedAt"`
	Prices    map[string]PriceRange `json:"prices"`
}

type PriceRange struct {
	Low       decimal.NullDecimal `json:"low"`
	Mid       decimal.NullDecimal `json:"mid"`
	High      decimal.NullDecimal `json:"high"`
	Market    decimal.NullDecimal `json:"market"`
	DirectLow decimal.NullDecimal `json:"directLow"`
}
