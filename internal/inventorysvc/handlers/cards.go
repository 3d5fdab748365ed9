package handlers

import (
	"net/http"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/service"
	"github.com/go-chi/chi"
)

func searchParams(r *http.Request) (service.SearchParams, error) {
	q := r.URL.Query()
	p := service.SearchParams{
		Query:      q.Get("q"),
		SetID:      q.Get("set"),
		RarityCode: q.Get("rarity"),
		Era:        q.Get("era"),
		Tier:       q.Get("tier"),
		Sort:       q.Get("sort"),
		Order:      q.Get("order"),
	}

	var err error
	if p.MinPrice, err = queryDecimal(r, "min_price"); err != nil {
		return p, err
	}
	if p.MaxPrice, err = queryDecimal(r, "max_price"); err != nil {
		return p, err
	}
	if p.Page, err = queryInt(r, "page"); err != nil {
		return p, err
	}
	if p.PageSize, err = queryInt(r, "page_size"); err != nil {
		return p, err
	}
	return p, nil
}

func (h *Handler) SearchCards(w http.ResponseWriter, r *http.Request) {
	p, err := searchParams(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	page, err := h.svc.Cards.Search(r.Context(), p)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "cards", page)
}

func (h *Handler) GetCard(w http.ResponseWriter, r *http.Request) {
	card, err := h.svc.Cards.GetCard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "card", card)
}

func (h *Handler) ListSets(w http.ResponseWriter, r *http.Request) {
	sets, err := h.svc.Cards.ListSets(r.Context(), r.URL.Query().Get("era"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "sets", sets)
}

func (h *Handler) GetSet(w http.ResponseWriter, r *http.Request) {
	set, err := h.svc.Cards.GetSet(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "set", set)
}

func (h *Handler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Dashboard.Stats(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "dashboard stats", stats)
}
