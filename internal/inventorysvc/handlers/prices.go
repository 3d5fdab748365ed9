package handlers

import (
	"net/http"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/service"
	"github.com/go-chi/chi"
)

type enqueueRequest struct {
	Tier    string   `json:"tier"`
	Limit   int      `json:"limit"`
	CardIDs []string `json:"card_ids"`
}

func (h *Handler) EnqueuePrices(w http.ResponseWriter, r *http.Request) {
	var req enqueueRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	var (
		added int
		err   error
	)
	if len(req.CardIDs) > 0 {
		added, err = h.svc.Prices.EnqueueCards(r.Context(), req.CardIDs)
	} else {
		tier, perr := service.ParseTier(req.Tier)
		if perr != nil {
			h.fail(w, r, perr)
			return
		}
		added, err = h.svc.Prices.EnqueueTier(r.Context(), tier, req.Limit)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	h.ok(w, "cards queued", map[string]interface{}{
		"added": added,
		"queue": h.svc.Prices.QueueStatus(),
	})
}

type processRequest struct {
	MaxBursts int `json:"max_bursts"`
}

func (h *Handler) ProcessQueue(w http.ResponseWriter, r *http.Request) {
	var req processRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	run, err := h.svc.Prices.ProcessQueue(r.Context(), req.MaxBursts)
	if err != nil {
		h.failWith(w, r, err, run)
		return
	}
	h.ok(w, "price queue processed", run)
}

func (h *Handler) QueueStatus(w http.ResponseWriter, r *http.Request) {
	h.ok(w, "price queue", h.svc.Prices.QueueStatus())
}

func (h *Handler) ClearQueue(w http.ResponseWriter, r *http.Request) {
	removed := h.svc.Prices.ClearQueue()
	h.ok(w, "price queue cleared", map[string]int{"removed": removed})
}

func (h *Handler) UpdateCardPrice(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Prices.UpdateCardPrice(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.failWith(w, r, err, res)
		return
	}
	h.ok(w, "card price refreshed", res)
}
