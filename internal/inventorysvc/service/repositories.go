package service

import (
	"context"
	"time"

	"github.com/avvvet/pokecard-services/internal/cardapi"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/shopspring/decimal"
)

type CardRepository interface {
	SaveCard(ctx context.Context, card *models.Card, variations []models.Variation) error
	GetCard(ctx context.Context, id string) (*models.Card, error)
	SearchCards(ctx context.Context, f models.CardFilter) ([]models.Card, int, error)
	ListCardsForPricing(ctx context.Context, f models.PricingFilter) ([]models.Card, error)
	ListVariations(ctx context.Context, cardID string) ([]models.Variation, error)
}

type SetRepository interface {
	UpsertSet(ctx context.Context, set *models.Set) error
	GetSet(ctx context.Context, id string) (*models.Set, error)
	ListSets(ctx context.Context, era string) ([]models.Set, error)
}

type PriceRepository interface {
	SaveRefresh(ctx context.Context, cardID string, market decimal.NullDecimal, variations []models.Variation, at time.Time) error
	ListHistory(ctx context.Context, cardID string, limit int) ([]models.PricePoint, error)
}

type ListingRepository interface {
	CreateListing(ctx context.Context, l *models.Listing) error
	GetListing(ctx context.Context, id int64) (*models.Listing, error)
	UpdateListing(ctx context.Context, l *models.Listing) error
	DeleteListing(ctx context.Context, id int64) error
	ListListings(ctx context.Context, f models.ListingFilter) ([]models.Listing, error)
}

type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type ValidationRepository interface {
	CountIssues(ctx context.Context, check string, staleBefore time.Time, sampleLimit int) (int, []string, error)
}

type StatsRepository interface {
	InventoryStats(ctx context.Context, highMin, mediumMin decimal.Decimal) (models.InventoryStats, error)
}

// AuditLog keeps a history of sync runs and validation reports.
type AuditLog interface {
	SaveSyncRun(ctx context.Context, run *models.SyncRun) error
	ListSyncRuns(ctx context.Context, limit int) ([]models.SyncRun, error)
	LastSyncRun(ctx context.Context) (*models.SyncRun, error)
	SaveValidationReport(ctx context.Context, report *models.ValidationReport) error
	ListValidationReports(ctx context.Context, limit int) ([]models.ValidationReport, error)
}

// CardSource is the third-party card data API.
type CardSource interface {
	ListAllSets(ctx context.Context) ([]cardapi.Set, error)
	ListAllSetCards(ctx context.Context, setID string) ([]cardapi.Card, error)
	GetCard(ctx context.Context, id string) (*cardapi.Card, error)
}

// EventPublisher pushes progress events to whoever is listening
// (the admin dashboard feed).
type EventPublisher interface {
	PublishEvent(eventType string, data any)
}

type NopPublisher struct{}

func (NopPublisher) PublishEvent(string, any) {}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
