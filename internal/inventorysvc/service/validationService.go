package service

import (
	"context"
	"time"

	"github.com/avvvet/pokecard-services/internal/comm"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

const sampleLimit = 10

// Check names understood by the validation store.
const (
	CheckMissingImage       = "cards_missing_image"
	CheckMissingPrice       = "cards_missing_price"
	CheckStalePrice         = "cards_stale_price"
	CheckOrphanedCards      = "cards_orphaned_set"
	CheckUnknownRarity      = "cards_unknown_rarity"
	CheckDuplicateNumbers   = "duplicate_card_numbers"
	CheckSetCountMismatch   = "set_count_mismatch"
	CheckOrphanedVariations = "variations_orphaned"
	CheckInvalidListings    = "listings_invalid"
)

type checkDef struct {
	name, severity, description string
}

var checks = []checkDef{
	{CheckMissingImage, models.SeverityWarning, "cards without an image url"},
	{CheckMissingPrice, models.SeverityWarning, "cards without a market price"},
	{CheckStalePrice, models.SeverityWarning, "cards whose price is older than the stale window"},
	{CheckOrphanedCards, models.SeverityError, "cards pointing at a set that does not exist"},
	{CheckUnknownRarity, models.SeverityWarning, "cards with a rarity missing from the rarity table"},
	{CheckDuplicateNumbers, models.SeverityError, "set/number pairs used by more than one card"},
	{CheckSetCountMismatch, models.SeverityWarning, "sets whose stored card count differs from their total"},
	{CheckOrphanedVariations, models.SeverityError, "variations whose card does not exist"},
	{CheckInvalidListings, models.SeverityError, "listings with bad quantity, price or card"},
}

type ValidationService struct {
	repo       ValidationRepository
	audit      AuditLog
	events     EventPublisher
	staleAfter time.Duration
	now        func() time.Time
}

func NewValidationService(repo ValidationRepository, audit AuditLog, events EventPublisher, staleAfter time.Duration) *ValidationService {
	if staleAfter <= 0 {
		staleAfter = 7 * 24 * time.Hour
	}
	if events == nil {
		events = NopPublisher{}
	}
	return &ValidationService{repo: repo, audit: audit, events: events, staleAfter: staleAfter, now: time.Now}
}

// Run executes every data-quality check. A check that errors is reported as
// such and does not stop the others; the report fails if any error-severity
// check found issues or could not run.
func (s *ValidationService) Run(ctx context.Context) (*models.ValidationReport, error) {
	now := s.now().UTC()
	report := &models.ValidationReport{
		RunID:  uuid.New().String(),
		RunAt:  now,
		Checks: make([]models.CheckResult, 0, len(checks)),
		Passed: true,
	}
	staleBefore := now.Add(-s.staleAfter)

	for _, c := range checks {
		res := models.CheckResult{Name: c.name, Severity: c.severity, Description: c.description, Samples: []string{}}
		count, samples, err := s.repo.CountIssues(ctx, c.name, staleBefore, sampleLimit)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Errorf("Error [ValidationService.Run] check %s: %s", c.name, err)
			res.Error = err.Error()
			if c.severity == models.SeverityError {
				report.Passed = false
			}
		} else {
			res.Count = count
			if samples != nil {
				res.Samples = samples
			}
		}
		report.TotalIssues += res.Count
		if res.Count > 0 && c.severity == models.SeverityError {
			report.Passed = false
		}
		report.Checks = append(report.Checks, res)
	}

	if s.audit != nil {
		if err := s.audit.SaveValidationReport(ctx, report); err != nil {
			log.Errorf("Error [ValidationService.Run] saving report %s: %s", report.RunID, err)
		}
	}
	s.events.PublishEvent(comm.EventValidationDone, comm.ValidationDone{
		RunID:       report.RunID,
		TotalIssues: report.TotalIssues,
		Passed:      report.Passed,
	})
	log.WithFields(log.Fields{"run_id": report.RunID, "issues": report.TotalIssues, "passed": report.Passed}).
		Info("validation finished")
	return report, nil
}

func (s *ValidationService) ListReports(ctx context.Context, limit int) ([]models.ValidationReport, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.audit.ListValidationReports(ctx, limit)
}
