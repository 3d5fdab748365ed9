// Package app builds the inventory stores and services from config. The
// HTTP service and cardctl share it.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/avvvet/pokecard-services/internal/cardapi"
	mongodb "github.com/avvvet/pokecard-services/internal/db"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/config"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/db"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/handlers"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/service"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

type App struct {
	Cfg  config.Config
	Pool *pgxpool.Pool

	Users *store.UserStore
	Queue *service.PriceQueue

	Cards      *service.CardService
	Sync       *service.SyncService
	Prices     *service.PriceUpdateService
	Validation *service.ValidationService
	Listings   *service.ListingService
	Dashboard  *service.DashboardService

	closers []func()
}

// New connects Postgres and the optional Redis and Mongo backends, then wires
// the services. events may be nil.
func New(ctx context.Context, cfg config.Config, events service.EventPublisher) (*App, error) {
	a := &App{Cfg: cfg}

	pool, err := db.Connect(cfg.DBUrl, cfg.DBMaxConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	a.Pool = pool
	a.closers = append(a.closers, db.ClosePool)
	log.Printf("pg connection established successfully")

	cache, err := a.searchCache(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	audit, err := a.auditLog(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	cardStore := store.NewCardStore(pool)
	setStore := store.NewSetStore(pool)
	priceStore := store.NewPriceStore(pool)
	a.Users = store.NewUserStore(pool)

	tuning := cfg.Tuning
	source := cardapi.NewClient(cfg.CardAPIURL, cfg.CardAPIKey, cardapi.WithPageDelay(tuning.Sync.PageDelay))

	a.Queue = service.NewPriceQueue()
	a.Cards = service.NewCardService(cardStore, setStore, priceStore, cache, tuning.Thresholds())
	a.Sync = service.NewSyncService(source, setStore, cardStore, audit, cache, events, tuning.SyncConfig())
	a.Prices = service.NewPriceUpdateService(cardStore, priceStore, source, a.Queue, cache, events, tuning.PriceUpdateConfig())
	a.Validation = service.NewValidationService(store.NewValidationStore(pool), audit, events, tuning.Validation.StaleAfter)
	a.Listings = service.NewListingService(store.NewListingStore(pool), cardStore, a.Users)
	a.Dashboard = service.NewDashboardService(store.NewStatsStore(pool), a.Prices, audit)
	return a, nil
}

func (a *App) searchCache(ctx context.Context) (service.SearchCache, error) {
	t := a.Cfg.Tuning.Cache
	if a.Cfg.RedisURL == "" {
		return service.NewMemoryCache(t.TTL, t.MaxEntries), nil
	}

	opts, err := redis.ParseURL(a.Cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	rdb := redis.NewClient(opts)
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	a.closers = append(a.closers, func() { rdb.Close() })
	log.Info("connected to redis, search cache is shared")
	return service.NewRedisCache(rdb, t.TTL), nil
}

func (a *App) auditLog(ctx context.Context) (service.AuditLog, error) {
	if a.Cfg.MongoURI == "" {
		log.Warn("MONGODB_URI not set, sync and validation history kept in memory")
		return store.NewMemoryAuditStore(100), nil
	}

	database, err := mongodb.ConnectToDB(ctx, a.Cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { mongodb.Disconnect(database) })
	return store.NewMongoAuditStore(ctx, database, a.Cfg.Tuning.AuditRetention)
}

func (a *App) Services() handlers.Services {
	return handlers.Services{
		Cards:      a.Cards,
		Sync:       a.Sync,
		Prices:     a.Prices,
		Validation: a.Validation,
		Listings:   a.Listings,
		Dashboard:  a.Dashboard,
	}
}

// Close releases backends in reverse order of opening.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
