package handlers

import (
	"net/http"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/go-chi/chi"
)

func (h *Handler) syncResponse(w http.ResponseWriter, r *http.Request, run *models.SyncRun, err error) {
	if err != nil {
		h.failWith(w, r, err, run)
		return
	}
	h.ok(w, "sync finished", run)
}

func (h *Handler) SyncSets(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.Sync.SyncSets(r.Context())
	h.syncResponse(w, r, run, err)
}

func (h *Handler) SyncSetCards(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.Sync.SyncSetCards(r.Context(), chi.URLParam(r, "id"))
	h.syncResponse(w, r, run, err)
}

func (h *Handler) SyncAllCards(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.Sync.SyncAllCards(r.Context())
	h.syncResponse(w, r, run, err)
}

func (h *Handler) SyncCard(w http.ResponseWriter, r *http.Request) {
	run, err := h.svc.Sync.SyncCard(r.Context(), chi.URLParam(r, "id"))
	h.syncResponse(w, r, run, err)
}

func (h *Handler) ListSyncRuns(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	runs, err := h.svc.Sync.ListRuns(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if runs == nil {
		runs = []models.SyncRun{}
	}
	h.ok(w, "sync runs", runs)
}
