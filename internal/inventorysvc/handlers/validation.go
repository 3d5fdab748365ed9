package handlers

import (
	"net/http"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
)

func (h *Handler) RunValidation(w http.ResponseWriter, r *http.Request) {
	report, err := h.svc.Validation.Run(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.ok(w, "validation finished", report)
}

func (h *Handler) ListValidationReports(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	reports, err := h.svc.Validation.ListReports(r.Context(), limit)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if reports == nil {
		reports = []models.ValidationReport{}
	}
	h.ok(w, "validation reports", reports)
}
