package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/httprate"

	config "github.com/avvvet/pokecard-services/configs"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/app"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/broker"
	invconfig "github.com/avvvet/pokecard-services/internal/inventorysvc/config"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/db"
	handlers "github.com/avvvet/pokecard-services/internal/inventorysvc/handlers"
	nats "github.com/avvvet/pokecard-services/internal/nats"
	log "github.com/sirupsen/logrus"
)

const SERVICE_NAME = "inventory"

var instanceId string

func init() {
	config.LoadEnv(SERVICE_NAME)
	instanceId = config.CreateUniqueInstance(SERVICE_NAME)
	config.Logging(SERVICE_NAME + "_service_" + instanceId[:8])
}

func main() {
	cfg, err := invconfig.Load()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to NATS
	n, err := nats.Connect(SERVICE_NAME + "-" + instanceId)
	if err != nil {
		log.Fatalf("Error: unable to connect to NATS server %v", err)
	}
	defer n.Close()
	log.Printf("NATS connection established successfully %s", n.Url)

	b := broker.NewBroker(ctx, n.Conn, SERVICE_NAME+"-"+instanceId)

	a, err := app.New(ctx, cfg, b)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	if os.Getenv("AUTO_MIGRATE") == "true" {
		if err := db.Migrate(ctx, a.Pool); err != nil {
			log.Fatalf("Failed to migrate: %v", err)
		}
		log.Info("schema migrated")
	}

	// any instance may answer a refresh request, but only one does
	sub, err := b.QueueSubscribePriceRefresh("inventorysvc", a.Prices)
	if err != nil {
		log.Fatalf("Error: unable to subscribe to price refresh requests %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go a.Prices.Run(ctx, &wg)

	// Setup router
	r := chi.NewRouter()
	c := config.CORS()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(config.CustomLoggerMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(c.Handler)

	// to protect the service api from any over requests
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	// Init handlers and routes
	h := handlers.NewHandler(a.Services(), cfg.Port)
	h.InitAuth(cfg.JWTSecret)
	h.SetRoutes(r)

	// Create server with timeout settings
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 16 * time.Minute, // sync routes run up to 15m
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("ListenAndServe(): %v", err)
		}
	}()
	log.Infof("%s service running at port %s", SERVICE_NAME, server.Addr)

	<-ctx.Done()

	sub.Unsubscribe()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorf("%s service shutdown Failed:%+v", SERVICE_NAME, err)
	}
	wg.Wait()
	log.Infof("%s service gracefully stopped", SERVICE_NAME)
}
