package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avvvet/pokecard-services/internal/cardapi"
	"github.com/avvvet/pokecard-services/internal/comm"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

var ErrQueueBusy = fmt.Errorf("%w: price queue is already being processed", models.ErrConflict)

type PriceUpdateConfig struct {
	Thresholds   Thresholds
	RefreshAges  RefreshAges
	BurstSize    int
	BurstDelay   time.Duration
	Concurrency  int
	Interval     time.Duration // scheduler tick
	EnqueueLimit int           // cards pulled per tier per enqueue
}

func DefaultPriceUpdateConfig() PriceUpdateConfig {
	return PriceUpdateConfig{
		Thresholds:   DefaultThresholds(),
		RefreshAges:  DefaultRefreshAges(),
		BurstSize:    20,
		BurstDelay:   2 * time.Second,
		Concurrency:  5,
		Interval:     15 * time.Minute,
		EnqueueLimit: 500,
	}
}

// PriceUpdateService schedules and executes tiered price refreshes.
type PriceUpdateService struct {
	cards    CardRepository
	prices   PriceRepository
	source   CardSource
	queue    *PriceQueue
	cache    SearchCache
	events   EventPublisher
	cfg      PriceUpdateConfig
	draining atomic.Bool
	now      func() time.Time
}

func NewPriceUpdateService(cards CardRepository, prices PriceRepository, source CardSource, queue *PriceQueue,
	cache SearchCache, events EventPublisher, cfg PriceUpdateConfig) *PriceUpdateService {
	def := DefaultPriceUpdateConfig()
	if cfg.BurstSize <= 0 {
		cfg.BurstSize = def.BurstSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = cfg.BurstSize
	}
	if cfg.Interval <= 0 {
		cfg.Interval = def.Interval
	}
	if cfg.EnqueueLimit <= 0 {
		cfg.EnqueueLimit = def.EnqueueLimit
	}
	if events == nil {
		events = NopPublisher{}
	}
	return &PriceUpdateService{
		cards:  cards,
		prices: prices,
		source: source,
		queue:  queue,
		cache:  cache,
		events: events,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (s *PriceUpdateService) Thresholds() Thresholds {
	return s.cfg.Thresholds
}

func (s *PriceUpdateService) QueueStatus() models.QueueStatus {
	st := s.queue.Status()
	st.Processing = s.draining.Load()
	return st
}

func (s *PriceUpdateService) ClearQueue() int {
	return s.queue.Clear()
}

func (s *PriceUpdateService) pricingFilter(t Tier, updatedBefore *time.Time, limit int) models.PricingFilter {
	r := s.cfg.Thresholds.rangeOf(t)
	return models.PricingFilter{
		MinPrice:        r.min,
		MaxPriceBelow:   r.maxBelow,
		IncludeUnpriced: r.includeUnpriced,
		UpdatedBefore:   updatedBefore,
		Limit:           limit,
	}
}

func (s *PriceUpdateService) itemsFor(cards []models.Card, t Tier) []QueueItem {
	items := make([]QueueItem, 0, len(cards))
	for _, c := range cards {
		it := QueueItem{CardID: c.ID, Priority: t}
		if c.PriceUpdatedAt != nil {
			it.LastUpdated = *c.PriceUpdatedAt
		}
		items = append(items, it)
	}
	return items
}

// EnqueueTier queues up to limit cards of the tier (every tier for "all"),
// least recently priced first. Returns the number of newly queued cards.
func (s *PriceUpdateService) EnqueueTier(ctx context.Context, tier Tier, limit int) (int, error) {
	if limit <= 0 {
		limit = s.cfg.EnqueueLimit
	}
	tiers := []Tier{tier}
	if tier == TierAll {
		tiers = AllTiers
	}

	added := 0
	for _, t := range tiers {
		cards, err := s.cards.ListCardsForPricing(ctx, s.pricingFilter(t, nil, limit))
		if err != nil {
			return added, fmt.Errorf("list %s tier cards: %w", t, err)
		}
		added += s.queue.Push(s.itemsFor(cards, t)...)
	}

	s.events.PublishEvent(comm.EventPriceQueueAdded, comm.QueueAdded{Tier: string(tier), Added: added, Total: s.queue.Len()})
	log.WithFields(log.Fields{"tier": tier, "added": added, "queued": s.queue.Len()}).Info("price queue filled")
	return added, nil
}

// EnqueueCards queues explicit cards, each at the tier of its current price.
func (s *PriceUpdateService) EnqueueCards(ctx context.Context, cardIDs []string) (int, error) {
	items := make([]QueueItem, 0, len(cardIDs))
	for _, id := range cardIDs {
		c, err := s.cards.GetCard(ctx, id)
		if err != nil {
			if errors.Is(err, models.ErrNotFound) {
				log.Warnf("price refresh requested for unknown card %s", id)
				continue
			}
			return 0, err
		}
		items = append(items, s.itemsFor([]models.Card{*c}, TierFor(c.MarketPrice, s.cfg.Thresholds))...)
	}
	added := s.queue.Push(items...)
	s.events.PublishEvent(comm.EventPriceQueueAdded, comm.QueueAdded{Added: added, Total: s.queue.Len()})
	return added, nil
}

// EnqueueStale queues every card whose price is older than its tier's
// refresh age.
func (s *PriceUpdateService) EnqueueStale(ctx context.Context) (int, error) {
	added := 0
	for _, t := range AllTiers {
		before := s.now().Add(-s.cfg.RefreshAges.For(t))
		cards, err := s.cards.ListCardsForPricing(ctx, s.pricingFilter(t, &before, s.cfg.EnqueueLimit))
		if err != nil {
			return added, fmt.Errorf("list stale %s tier cards: %w", t, err)
		}
		added += s.queue.Push(s.itemsFor(cards, t)...)
	}
	return added, nil
}

// ProcessQueue drains the queue in bursts of BurstSize, waiting BurstDelay
// between bursts. maxBursts <= 0 drains until empty. Only one drain runs at a
// time; a second caller gets ErrQueueBusy.
func (s *PriceUpdateService) ProcessQueue(ctx context.Context, maxBursts int) (*models.PriceRun, error) {
	if !s.draining.CompareAndSwap(false, true) {
		return nil, ErrQueueBusy
	}
	defer s.draining.Store(false)

	run := &models.PriceRun{
		RunID:     uuid.New().String(),
		Results:   []models.PriceUpdateResult{},
		StartedAt: s.now().UTC(),
	}

	var runErr error
	for maxBursts <= 0 || run.Bursts < maxBursts {
		if run.Bursts > 0 && s.queue.Len() > 0 {
			if err := sleepContext(ctx, s.cfg.BurstDelay); err != nil {
				runErr = err
				break
			}
		}
		batch := s.queue.Pop(s.cfg.BurstSize)
		if len(batch) == 0 {
			break
		}
		run.Bursts++

		results := s.processBurst(ctx, batch)
		succeeded, failed := 0, 0
		for _, r := range results {
			if r.Success {
				succeeded++
			} else {
				failed++
			}
		}
		run.Results = append(run.Results, results...)
		run.Processed += len(results)
		run.Succeeded += succeeded
		run.Failed += failed

		s.events.PublishEvent(comm.EventPriceBurst, comm.PriceBurst{
			RunID:     run.RunID,
			Burst:     run.Bursts,
			Processed: len(results),
			Succeeded: succeeded,
			Failed:    failed,
			Remaining: s.queue.Len(),
		})
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
	}

	run.Remaining = s.queue.Len()
	run.FinishedAt = s.now().UTC()
	if run.Succeeded > 0 && s.cache != nil {
		s.cache.Purge(ctx)
	}

	s.events.PublishEvent(comm.EventPriceRunDone, comm.PriceBurst{
		RunID:     run.RunID,
		Burst:     run.Bursts,
		Processed: run.Processed,
		Succeeded: run.Succeeded,
		Failed:    run.Failed,
		Remaining: run.Remaining,
	})
	if run.Processed > 0 {
		log.WithFields(log.Fields{
			"run_id":    run.RunID,
			"bursts":    run.Bursts,
			"succeeded": run.Succeeded,
			"failed":    run.Failed,
			"remaining": run.Remaining,
		}).Info("price queue drained")
	}
	return run, runErr
}

// processBurst refreshes one burst. Items cut short by ctx are pushed back
// onto the queue rather than reported as failed.
func (s *PriceUpdateService) processBurst(ctx context.Context, batch []QueueItem) []models.PriceUpdateResult {
	results := make([]models.PriceUpdateResult, len(batch))
	interrupted := make([]bool, len(batch))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Concurrency)
	for i, it := range batch {
		g.Go(func() error {
			res, _ := s.refresh(gctx, it.CardID, it.Priority)
			results[i] = res
			interrupted[i] = !res.Success && gctx.Err() != nil
			return nil
		})
	}
	g.Wait()

	if ctx.Err() == nil {
		return results
	}
	done := results[:0]
	var requeue []QueueItem
	for i, res := range results {
		if interrupted[i] {
			requeue = append(requeue, batch[i])
			continue
		}
		done = append(done, res)
	}
	if len(requeue) > 0 {
		s.queue.Push(requeue...)
	}
	return done
}

// refresh fetches one card's current prices and stores them. A failure is
// reported both in the result and as the returned error.
func (s *PriceUpdateService) refresh(ctx context.Context, cardID string, tier Tier) (models.PriceUpdateResult, error) {
	res := models.PriceUpdateResult{CardID: cardID, Tier: string(tier)}

	current, err := s.cards.GetCard(ctx, cardID)
	if err != nil {
		res.Error = err.Error()
		return res, err
	}
	res.OldPrice = current.MarketPrice

	vc, err := s.source.GetCard(ctx, cardID)
	if err != nil {
		switch {
		case errors.Is(err, cardapi.ErrNotFound):
			res.Error = "card no longer exists in card api"
			return res, fmt.Errorf("card %s in card api: %w", cardID, models.ErrNotFound)
		case ctx.Err() != nil:
			res.Error = err.Error()
			return res, err
		}
		res.Error = err.Error()
		return res, fmt.Errorf("%w: %s", models.ErrUpstream, err)
	}

	card, variations := mapCard(*vc, current.Era)
	if err := s.prices.SaveRefresh(ctx, cardID, card.MarketPrice, variations, s.now().UTC()); err != nil {
		res.Error = err.Error()
		return res, err
	}
	res.NewPrice = card.MarketPrice
	res.Success = true
	return res, nil
}

// UpdateCardPrice refreshes one card immediately, bypassing the queue. When
// the refresh fails the result is still returned next to the error.
func (s *PriceUpdateService) UpdateCardPrice(ctx context.Context, cardID string) (*models.PriceUpdateResult, error) {
	current, err := s.cards.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	res, err := s.refresh(ctx, cardID, TierFor(current.MarketPrice, s.cfg.Thresholds))
	if err != nil {
		return &res, err
	}
	if s.cache != nil {
		s.cache.Purge(ctx)
	}
	return &res, nil
}

// Run is the background scheduler: every Interval it queues stale cards and
// drains the queue. It returns when ctx is done.
func (s *PriceUpdateService) Run(ctx context.Context, wg *sync.WaitGroup) {
	defer wg.Done()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	log.Infof("price scheduler started, interval %s", s.cfg.Interval)
	for {
		select {
		case <-ctx.Done():
			log.Info("price scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *PriceUpdateService) tick(ctx context.Context) {
	added, err := s.EnqueueStale(ctx)
	if err != nil {
		log.Errorf("Error [PriceUpdateService.EnqueueStale] %s", err)
	}
	if added > 0 {
		log.Infof("scheduler queued %d stale cards", added)
	}
	if _, err := s.ProcessQueue(ctx, 0); err != nil && !errors.Is(err, ErrQueueBusy) && ctx.Err() == nil {
		log.Errorf("Error [PriceUpdateService.ProcessQueue] %s", err)
	}
}
