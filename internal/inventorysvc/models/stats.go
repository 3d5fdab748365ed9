package models

type InventoryStats struct {
	Cards          int `json:"cards"`
	Sets           int `json:"sets"`
	Variations     int `json:"variations"`
	Listings       int `json:"listings"`
	ActiveListings int `json:"active_listings"`
	Unpriced       int `json:"unpriced"`
	HighTier       int `json:"high_tier"`
	MediumTier     int `json:"medium_tier"`
	LowTier        int `json:"low_tier"`
}

type DashboardStats struct {
	Inventory InventoryStats `json:"inventory"`
	Queue     QueueStatus    `json:"queue"`
	LastSync  *SyncRun       `json:"last_sync,omitempty"`
}
