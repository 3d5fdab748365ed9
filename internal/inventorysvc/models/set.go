package models

import "time"

type Set struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Series       string     `json:"series"`
	Era          string     `json:"era"`
	PrintedTotal int        `json:"printed_total"`
	Total        int        `json:"total"`
	ReleaseDate  *time.Time `json:"release_date,omitempty"`
	SymbolURL    string     `json:"symbol_url,omitempty"`
	LogoURL      string     `json:"logo_url,omitempty"`
	CardCount    int        `json:"card_count"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
