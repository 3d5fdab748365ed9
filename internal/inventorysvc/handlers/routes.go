package handlers

import (
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/jwtauth"
	log "github.com/sirupsen/logrus"
)

// syncs and queue drains run far longer than reads
const longRequestTimeout = 15 * time.Minute

func (h *Handler) SetRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {

		// public routes here
		r.Get("/health", h.HealthHandler)

		// Secure routes
		r.Group(func(r chi.Router) {
			r.Use(jwtauth.Verifier(h.tokenAuth))
			r.Use(jwtauth.Authenticator)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(60 * time.Second))

				r.Get("/dashboard/stats", h.DashboardStats)

				r.Get("/cards", h.SearchCards)
				r.Get("/cards/{id}", h.GetCard)
				r.Get("/sets", h.ListSets)
				r.Get("/sets/{id}", h.GetSet)

				r.Get("/sync/runs", h.ListSyncRuns)

				r.Post("/prices/enqueue", h.EnqueuePrices)
				r.Get("/prices/queue", h.QueueStatus)
				r.Delete("/prices/queue", h.ClearQueue)
				r.Post("/prices/cards/{id}", h.UpdateCardPrice)

				r.Get("/validation", h.RunValidation)
				r.Get("/validation/reports", h.ListValidationReports)

				r.Get("/listings", h.ListListings)
				r.Post("/listings", h.CreateListing)
				r.Get("/listings/{id}", h.GetListing)
				r.Patch("/listings/{id}", h.UpdateListing)
				r.Delete("/listings/{id}", h.DeleteListing)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.Timeout(longRequestTimeout))

				r.Post("/sync/sets", h.SyncSets)
				r.Post("/sync/sets/{id}/cards", h.SyncSetCards)
				r.Post("/sync/cards", h.SyncAllCards)
				r.Post("/sync/cards/{id}", h.SyncCard)

				r.Post("/prices/process", h.ProcessQueue)
			})
		})
	})
}

func (h *Handler) InitAuth(secret string) {
	h.tokenAuth = jwtauth.New("HS256", []byte(secret), nil)

	if log.IsLevelEnabled(log.DebugLevel) {
		_, tokenString, _ := h.tokenAuth.Encode(map[string]interface{}{
			"service_id": "inventorysvc",
			"exp":        time.Now().Add(24 * time.Hour).Unix(),
		})
		log.Debugf("DEBUG: admin JWT valid for 24h: %s", tokenString)
	}
}
