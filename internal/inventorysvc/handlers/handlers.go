package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/service"
	"github.com/go-chi/jwtauth"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"
)

type Services struct {
	Cards      *service.CardService
	Sync       *service.SyncService
	Prices     *service.PriceUpdateService
	Validation *service.ValidationService
	Listings   *service.ListingService
	Dashboard  *service.DashboardService
}

type Handler struct {
	tokenAuth *jwtauth.JWTAuth
	svc       Services
	port      string
}

func NewHandler(svc Services, port string) *Handler {
	return &Handler{svc: svc, port: port}
}

type Response struct {
	Message string      `json:"message"`
	Code    int         `json:"code"`
	Data    interface{} `json:"data"`
	Error   string      `json:"error"`
}

func (h *Handler) CreateResponse(w http.ResponseWriter, rsp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(rsp.Code)
	if err := json.NewEncoder(w).Encode(rsp); err != nil {
		log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) ok(w http.ResponseWriter, message string, data interface{}) {
	h.CreateResponse(w, Response{Message: message, Code: http.StatusOK, Data: data})
}

// fail maps sentinel errors to a status. Anything unrecognised is a 500 and
// its detail stays in the log.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.failWith(w, r, err, nil)
}

// failWith is fail carrying a partial result, e.g. a sync run that stopped
// half way.
func (h *Handler) failWith(w http.ResponseWriter, r *http.Request, err error, data interface{}) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, models.ErrInvalidInput):
		code = http.StatusBadRequest
	case errors.Is(err, models.ErrConflict):
		code = http.StatusConflict
	case errors.Is(err, models.ErrUpstream):
		code = http.StatusBadGateway
	}

	msg := err.Error()
	if code == http.StatusInternalServerError {
		log.Errorf("Error %s %s: %s", r.Method, r.URL.Path, err)
		msg = "internal error"
	}
	h.CreateResponse(w, Response{Message: http.StatusText(code), Code: code, Data: data, Error: msg})
}

func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: malformed body: %s", models.ErrInvalidInput, err)
	}
	return nil
}

func queryInt(r *http.Request, key string) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", models.ErrInvalidInput, key)
	}
	return n, nil
}

func queryDecimal(r *http.Request, key string) (decimal.NullDecimal, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || d.IsNegative() {
		return decimal.NullDecimal{}, fmt.Errorf("%w: %s must be a non-negative number", models.ErrInvalidInput, key)
	}
	return decimal.NewNullDecimal(d), nil
}

func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	h.ok(w, "inventory service is running at port "+h.port, nil)
}
