package models

import "time"

const (
	SyncKindSets     = "sets"
	SyncKindSetCards = "set_cards"
	SyncKindCard     = "card"
	SyncKindAllCards = "all_cards"
)

type SyncResult struct {
	ID      string `json:"id" bson:"id"`
	Success bool   `json:"success" bson:"success"`
	Error   string `json:"error,omitempty" bson:"error,omitempty"`
}

// SyncRun is the outcome of one pull from the card API.
type SyncRun struct {
	RunID      string       `json:"run_id" bson:"run_id"`
	Kind       string       `json:"kind" bson:"kind"`
	Target     string       `json:"target,omitempty" bson:"target,omitempty"`
	Total      int          `json:"total" bson:"total"`
	Succeeded  int          `json:"succeeded" bson:"succeeded"`
	Failed     int          `json:"failed" bson:"failed"`
	Results    []SyncResult `json:"results" bson:"results"`
	Error      string       `json:"error,omitempty" bson:"error,omitempty"`
	StartedAt  time.Time    `json:"started_at" bson:"started_at"`
	FinishedAt time.Time    `json:"finished_at" bson:"finished_at"`
	ExpiresAt  time.Time    `json:"-" bson:"expires_at"`
}

func (r *SyncRun) Add(results ...SyncResult) {
	for _, res := range results {
		if res.Success {
			r.Succeeded++
		} else {
			r.Failed++
		}
		r.Results = append(r.Results, res)
	}
}
