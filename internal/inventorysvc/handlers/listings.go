package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/go-chi/chi"
	"github.com/shopspring/decimal"
)

func listingID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: listing id must be a positive integer", models.ErrInvalidInput)
	}
	return id, nil
}

type createListingRequest struct {
	UserID    int64           `json:"user_id"`
	CardID    string          `json:"card_id"`
	Condition string          `json:"condition"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Notes     string          `json:"notes"`
}

func (h *Handler) CreateListing(w http.ResponseWriter, r *http.Request) {
	var req createListingRequest
	if err := decodeBody(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}

	l := &models.Listing{
		UserID:    req.UserID,
		CardID:    req.CardID,
		Condition: req.Condition,
		Quantity:  req.Quantity,
		Price:     req.Price,
		Notes:     req.Notes,
	}
	if err := h.svc.Listings.Create(r.Context(), l); err != nil {
		h.fail(w, r, err)
		return
	}
	h.CreateResponse(w, Response{Message: "listing created", Code: http.StatusCreated, Data: l})
}

func (h *Handler) GetListing(w http.ResponseWriter, r *http.Request) {
	id, err := listingID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	l, err := h.svc.Listings.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "listing", l)
}

func (h *Handler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	id, err := listingID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var u models.ListingUpdate
	if err := decodeBody(r, &u); err != nil {
		h.fail(w, r, err)
		return
	}
	l, err := h.svc.Listings.Update(r.Context(), id, u)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "listing updated", l)
}

func (h *Handler) DeleteListing(w http.ResponseWriter, r *http.Request) {
	id, err := listingID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.svc.Listings.Delete(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "listing deleted", nil)
}

func (h *Handler) ListListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := models.ListingFilter{CardID: q.Get("card_id"), Status: q.Get("status")}

	if raw := q.Get("user_id"); raw != "" {
		uid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			h.fail(w, r, fmt.Errorf("%w: user_id must be an integer", models.ErrInvalidInput))
			return
		}
		f.UserID = uid
	}
	var err error
	if f.Limit, err = queryInt(r, "limit"); err != nil {
		h.fail(w, r, err)
		return
	}
	if f.Offset, err = queryInt(r, "offset"); err != nil {
		h.fail(w, r, err)
		return
	}

	listings, err := h.svc.Listings.List(r.Context(), f)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "listings", listings)
}
