package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type PricePoint struct {
	ID         int64           `json:"id"`
	CardID     string          `json:"card_id"`
	Variation  string          `json:"variation"`
	Market     decimal.Decimal `json:"market"`
	RecordedAt time.Time       `json:"recorded_at"`
}

type PriceUpdateResult struct {
	CardID   string              `json:"card_id"`
	Tier     string              `json:"tier"`
	Success  bool                `json:"success"`
	OldPrice decimal.NullDecimal `json:"old_price"`
	NewPrice decimal.NullDecimal `json:"new_price"`
	Error    string              `json:"error,omitempty"`
}

// PriceRun summarizes one drain of the price queue.
type PriceRun struct {
	RunID      string              `json:"run_id"`
	Bursts     int                 `json:"bursts"`
	Processed  int                 `json:"processed"`
	Succeeded  int                 `json:"succeeded"`
	Failed     int                 `json:"failed"`
	Remaining  int                 `json:"remaining"`
	Results    []PriceUpdateResult `json:"results"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt time.Time           `json:"finished_at"`
}

type QueueStatus struct {
	Total      int            `json:"total"`
	ByTier     map[string]int `json:"by_tier"`
	OldestAt   *time.Time     `json:"oldest_enqueued_at,omitempty"`
	Processing bool           `json:"processing"`
}
