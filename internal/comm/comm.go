package comm

import (
	"encoding/json"
	"time"
)

// NATS subjects
const (
	SubjectEvents       = "inventory.events"
	SubjectPriceRefresh = "price.refresh"
)

// Event types published on SubjectEvents
const (
	EventSyncProgress    = "sync-progress"
	EventSyncFinished    = "sync-finished"
	EventPriceBurst      = "price-burst"
	EventPriceRunDone    = "price-run-finished"
	EventValidationDone  = "validation-finished"
	EventPriceQueueAdded = "price-queue-added"
)

// Event is the envelope relayed to the admin dashboard websocket.
type Event struct {
	Type   string          `json:"type"`
	Data   json.RawMessage `json:"data"`
	Source string          `json:"source"`
	At     time.Time       `json:"at"`
}

type SyncProgress struct {
	RunID     string `json:"run_id"`
	Kind      string `json:"kind"`
	Target    string `json:"target,omitempty"`
	Processed int    `json:"processed"`
	Total     int    `json:"total"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Error     string `json:"error,omitempty"`
}

type PriceBurst struct {
	RunID     string `json:"run_id"`
	Burst     int    `json:"burst"`
	Processed int    `json:"processed"`
	Succeeded int    `json:"succeeded"`
	Failed    int    `json:"failed"`
	Remaining int    `json:"remaining"`
}

type QueueAdded struct {
	Tier  string `json:"tier"`
	Added int    `json:"added"`
	Total int    `json:"total"`
}

type ValidationDone struct {
	RunID       string `json:"run_id"`
	TotalIssues int    `json:"total_issues"`
	Passed      bool   `json:"passed"`
}

// PriceRefreshRequest asks the inventory service to queue price refreshes,
// either for explicit cards or for a whole tier.
type PriceRefreshRequest struct {
	CardIDs []string `json:"card_ids,omitempty"`
	Tier    string   `json:"tier,omitempty"`
	Limit   int      `json:"limit,omitempty"`
}
