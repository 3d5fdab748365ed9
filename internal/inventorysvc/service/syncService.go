package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avvvet/pokecard-services/internal/cardapi"
	"github.com/avvvet/pokecard-services/internal/comm"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type SyncConfig struct {
	BatchSize   int
	BatchDelay  time.Duration
	Concurrency int
}

func DefaultSyncConfig() SyncConfig {
	return SyncConfig{BatchSize: 25, BatchDelay: time.Second, Concurrency: 5}
}

// SyncService mirrors sets and cards from the card API into the database.
type SyncService struct {
	source CardSource
	sets   SetRepository
	cards  CardRepository
	audit  AuditLog
	cache  SearchCache
	events EventPublisher
	cfg    SyncConfig
	now    func() time.Time
}

func NewSyncService(source CardSource, sets SetRepository, cards CardRepository, audit AuditLog,
	cache SearchCache, events EventPublisher, cfg SyncConfig) *SyncService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultSyncConfig().BatchSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = cfg.BatchSize
	}
	if events == nil {
		events = NopPublisher{}
	}
	return &SyncService{
		source: source,
		sets:   sets,
		cards:  cards,
		audit:  audit,
		cache:  cache,
		events: events,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (s *SyncService) newRun(kind, target string) *models.SyncRun {
	return &models.SyncRun{
		RunID:     uuid.New().String(),
		Kind:      kind,
		Target:    target,
		Results:   []models.SyncResult{},
		StartedAt: s.now().UTC(),
	}
}

func (s *SyncService) finish(ctx context.Context, run *models.SyncRun) {
	run.FinishedAt = s.now().UTC()
	if s.cache != nil && run.Succeeded > 0 {
		s.cache.Purge(ctx)
	}
	if s.audit != nil {
		// audit write must survive a cancelled request
		actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := s.audit.SaveSyncRun(actx, run); err != nil {
			log.Errorf("Error [SyncService.finish] saving sync run %s: %s", run.RunID, err)
		}
	}
	s.events.PublishEvent(comm.EventSyncFinished, comm.SyncProgress{
		RunID:     run.RunID,
		Kind:      run.Kind,
		Target:    run.Target,
		Processed: run.Succeeded + run.Failed,
		Total:     run.Total,
		Succeeded: run.Succeeded,
		Failed:    run.Failed,
		Error:     run.Error,
	})
	log.WithFields(log.Fields{
		"run_id":    run.RunID,
		"kind":      run.Kind,
		"target":    run.Target,
		"total":     run.Total,
		"succeeded": run.Succeeded,
		"failed":    run.Failed,
		"took":      run.FinishedAt.Sub(run.StartedAt).String(),
	}).Info("sync run finished")
}

// SyncSets pulls every set from the card API and upserts it.
func (s *SyncService) SyncSets(ctx context.Context) (*models.SyncRun, error) {
	run := s.newRun(models.SyncKindSets, "")

	sets, err := s.source.ListAllSets(ctx)
	if err != nil {
		run.Error = err.Error()
		s.finish(ctx, run)
		return run, fmt.Errorf("fetch sets: %w", err)
	}
	run.Total = len(sets)

	for _, vs := range sets {
		set := mapSet(vs)
		res := models.SyncResult{ID: set.ID, Success: true}
		if err := s.sets.UpsertSet(ctx, &set); err != nil {
			res.Success = false
			res.Error = err.Error()
		}
		run.Add(res)
	}

	s.finish(ctx, run)
	return run, nil
}

// SyncSetCards pulls all cards of a set and upserts them in batches. Cards in
// one batch are written concurrently; batches are separated by BatchDelay to
// stay under the card API rate limit.
func (s *SyncService) SyncSetCards(ctx context.Context, setID string) (*models.SyncRun, error) {
	set, err := s.sets.GetSet(ctx, setID)
	if err != nil {
		return nil, fmt.Errorf("sync set %s: %w", setID, err)
	}

	run := s.newRun(models.SyncKindSetCards, setID)
	if err := s.syncSetInto(ctx, run, set); err != nil {
		run.Error = err.Error()
		s.finish(ctx, run)
		return run, err
	}
	s.finish(ctx, run)
	return run, nil
}

// SyncAllCards walks every local set. A failing set is recorded and the walk
// continues. Set fetches are spaced by BatchDelay.
func (s *SyncService) SyncAllCards(ctx context.Context) (*models.SyncRun, error) {
	sets, err := s.sets.ListSets(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list sets: %w", err)
	}

	run := s.newRun(models.SyncKindAllCards, "")
	for i := range sets {
		if i > 0 {
			if err := sleepContext(ctx, s.cfg.BatchDelay); err != nil {
				run.Error = err.Error()
				break
			}
		}
		if err := s.syncSetInto(ctx, run, &sets[i]); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				run.Error = err.Error()
				break
			}
			run.Add(models.SyncResult{ID: sets[i].ID, Success: false, Error: err.Error()})
		}
	}
	s.finish(ctx, run)
	return run, nil
}

func (s *SyncService) syncSetInto(ctx context.Context, run *models.SyncRun, set *models.Set) error {
	cards, err := s.source.ListAllSetCards(ctx, set.ID)
	if err != nil {
		return fmt.Errorf("fetch cards of set %s: %w", set.ID, err)
	}
	run.Total += len(cards)

	processed := 0
	for start := 0; start < len(cards); start += s.cfg.BatchSize {
		if start > 0 {
			if err := sleepContext(ctx, s.cfg.BatchDelay); err != nil {
				return err
			}
		}
		end := min(start+s.cfg.BatchSize, len(cards))
		results := s.syncBatch(ctx, set, cards[start:end])
		run.Add(results...)
		processed += len(results)

		s.events.PublishEvent(comm.EventSyncProgress, comm.SyncProgress{
			RunID:     run.RunID,
			Kind:      run.Kind,
			Target:    set.ID,
			Processed: processed,
			Total:     len(cards),
			Succeeded: run.Succeeded,
			Failed:    run.Failed,
		})
	}
	return nil
}

func (s *SyncService) syncBatch(ctx context.Context, set *models.Set, batch []cardapi.Card) []models.SyncResult {
	results := make([]models.SyncResult, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, vc := range batch {
		g.Go(func() error {
			card, variations := mapCard(vc, set.Era)
			card.SetID = set.ID
			res := models.SyncResult{ID: card.ID, Success: true}
			if err := s.cards.SaveCard(gctx, &card, variations); err != nil {
				res.Success = false
				res.Error = err.Error()
			}
			results[i] = res
			return nil
		})
	}
	g.Wait()
	return results
}

// SyncCard refreshes one card from the card API.
func (s *SyncService) SyncCard(ctx context.Context, cardID string) (*models.SyncRun, error) {
	run := s.newRun(models.SyncKindCard, cardID)
	run.Total = 1

	vc, err := s.source.GetCard(ctx, cardID)
	if err != nil {
		run.Error = err.Error()
		run.Add(models.SyncResult{ID: cardID, Success: false, Error: err.Error()})
		s.finish(ctx, run)
		if errors.Is(err, cardapi.ErrNotFound) {
			return run, fmt.Errorf("card %s: %w", cardID, models.ErrNotFound)
		}
		return run, fmt.Errorf("fetch card %s: %w", cardID, err)
	}

	era := ""
	if set, err := s.sets.GetSet(ctx, vc.Set.ID); err == nil {
		era = set.Era
	} else if !errors.Is(err, models.ErrNotFound) {
		log.Warnf("sync card %s: loading set %s: %s", cardID, vc.Set.ID, err)
	}

	card, variations := mapCard(*vc, era)
	res := models.SyncResult{ID: card.ID, Success: true}
	if err := s.cards.SaveCard(ctx, &card, variations); err != nil {
		res.Success = false
		res.Error = err.Error()
	}
	run.Add(res)
	s.finish(ctx, run)
	return run, nil
}

func (s *SyncService) ListRuns(ctx context.Context, limit int) ([]models.SyncRun, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.audit.ListSyncRuns(ctx, limit)
}
