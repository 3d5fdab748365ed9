package models

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ListingActive    = "active"
	ListingSold      = "sold"
	ListingWithdrawn = "withdrawn"
)

// Listing is one inventory line offered by a seller.
type Listing struct {
	ID        int64           `json:"id"`
	UserID    int64           `json:"user_id"`
	CardID    string          `json:"card_id"`
	Condition string          `json:"condition"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Status    string          `json:"status"`
	Notes     string          `json:"notes,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

type ListingFilter struct {
	UserID int64
	CardID string
	Status string
	Limit  int
	Offset int
}

type ListingUpdate struct {
	Price    *decimal.Decimal `json:"price,omitempty"`
	Quantity *int             `json:"quantity,omitempty"`
	Status   *string          `json:"status,omitempty"`
	Notes    *string          `json:"notes,omitempty"`
}
