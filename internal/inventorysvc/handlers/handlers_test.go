package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/avvvet/pokecard-services/internal/cardapi"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/models"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/service"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/store"
	"github.com/avvvet/pokecard-services/internal/inventorysvc/storetest"
	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	srv    *httptest.Server
	db     *storetest.Store
	source *storetest.Source
	token  string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db := storetest.New()
	db.Sets["base1"] = models.Set{ID: "base1", Name: "Base", Era: "base"}
	db.AddCard(models.Card{ID: "base1-4", SetID: "base1", Name: "Charizard", Era: "base", MarketPrice: storetest.Price("420.00")})
	db.AddCard(models.Card{ID: "base1-58", SetID: "base1", Name: "Pikachu", Era: "base", MarketPrice: storetest.Price("3.10")})
	db.AddUser(models.User{UserId: 1, Name: "shop", Role: "seller"})

	source := &storetest.Source{CardsByID: map[string]cardapi.Card{}, Errs: map[string]error{}}
	audit := store.NewMemoryAuditStore(10)
	cache := service.NewMemoryCache(time.Minute, 10)
	prices := service.NewPriceUpdateService(db, db, source, service.NewPriceQueue(), cache, nil, service.DefaultPriceUpdateConfig())

	h := NewHandler(Services{
		Cards:      service.NewCardService(db, db, db, cache, service.DefaultThresholds()),
		Sync:       service.NewSyncService(source, db, db, audit, cache, nil, service.DefaultSyncConfig()),
		Prices:     prices,
		Validation: service.NewValidationService(&storetest.Issues{}, audit, nil, 0),
		Listings:   service.NewListingService(db, db, db),
		Dashboard:  service.NewDashboardService(db, prices, audit),
	}, "8080")
	h.InitAuth("test-secret")
	_, token, err := h.tokenAuth.Encode(map[string]interface{}{"service_id": "test", "exp": time.Now().Add(time.Hour).Unix()})
	require.NoError(t, err)

	r := chi.NewRouter()
	h.SetRoutes(r)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &testServer{srv: srv, db: db, source: source, token: token}
}

type envelope struct {
	Message string          `json:"message"`
	Code    int             `json:"code"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	req, err := http.NewRequest(method, s.srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.Header.Get("Content-Type") == "application/json" {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func TestHealthIsPublic(t *testing.T) {
	s := newTestServer(t)
	s.token = ""

	code, env := s.do(t, http.MethodGet, "/v1/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, env.Message, "8080")
}

func TestSecureRoutesNeedToken(t *testing.T) {
	s := newTestServer(t)
	s.token = ""

	code, _ := s.do(t, http.MethodGet, "/v1/cards", "")
	assert.Equal(t, http.StatusUnauthorized, code)

	s.token = "not-a-jwt"
	code, _ = s.do(t, http.MethodGet, "/v1/cards", "")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestSearchCards(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/v1/cards?tier=high&sort=price&order=desc", "")
	require.Equal(t, http.StatusOK, code)

	var page models.CardPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Equal(t, 1, page.Total)
	require.Len(t, page.Cards, 1)
	assert.Equal(t, "base1-4", page.Cards[0].ID)
	assert.Equal(t, service.DefaultPageSize, page.PageSize)
}

func TestSearchCardsBadInput(t *testing.T) {
	s := newTestServer(t)

	for _, q := range []string{"page=two", "min_price=-1", "sort=rarity", "era=modern", "min_price=9&max_price=1"} {
		code, env := s.do(t, http.MethodGet, "/v1/cards?"+q, "")
		assert.Equal(t, http.StatusBadRequest, code, q)
		assert.NotEmpty(t, env.Error, q)
	}
}

func TestStoreFailureIsMasked(t *testing.T) {
	s := newTestServer(t)
	s.db.Err = errors.New("pq: password authentication failed")

	code, env := s.do(t, http.MethodGet, "/v1/cards?q=zzz", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal error", env.Error)
}

func TestGetCardAndSet(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/v1/cards/base1-58", "")
	require.Equal(t, http.StatusOK, code)
	var detail models.CardDetail
	require.NoError(t, json.Unmarshal(env.Data, &detail))
	assert.Equal(t, "Pikachu", detail.Name)
	require.NotNil(t, detail.Set)
	assert.Equal(t, "Base", detail.Set.Name)

	code, _ = s.do(t, http.MethodGet, "/v1/cards/base1-999", "")
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(t, http.MethodGet, "/v1/sets/base1", "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodGet, "/v1/sets?era=base", "")
	assert.Equal(t, http.StatusOK, code)
}

func TestSyncUnknownSetIs404(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/v1/sync/sets/nope/cards", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Contains(t, env.Error, "nope")
}

func TestPriceQueueRoutes(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/v1/prices/enqueue", `{"tier":"all"}`)
	require.Equal(t, http.StatusOK, code)
	var added struct {
		Added int                `json:"added"`
		Queue models.QueueStatus `json:"queue"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &added))
	assert.Equal(t, 2, added.Added)
	assert.Equal(t, 1, added.Queue.ByTier["high"])

	code, _ = s.do(t, http.MethodPost, "/v1/prices/enqueue", `{"tier":"mythic"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodPost, "/v1/prices/enqueue", `{"tier":"high","bogus":1}`)
	assert.Equal(t, http.StatusBadRequest, code, "unknown fields are rejected")

	code, env = s.do(t, http.MethodDelete, "/v1/prices/queue", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"removed":2}`, string(env.Data))

	code, env = s.do(t, http.MethodGet, "/v1/prices/queue", "")
	require.Equal(t, http.StatusOK, code)
	var st models.QueueStatus
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Zero(t, st.Total)
}

func TestProcessEmptyQueue(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/v1/prices/process", "")
	require.Equal(t, http.StatusOK, code)
	var run models.PriceRun
	require.NoError(t, json.Unmarshal(env.Data, &run))
	assert.Zero(t, run.Bursts)
}

func TestListingRoutes(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodPost, "/v1/listings",
		`{"user_id":1,"card_id":"base1-4","condition":"nm","quantity":1,"price":"450.00"}`)
	require.Equal(t, http.StatusCreated, code, env.Error)
	var created models.Listing
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.Equal(t, "NM", created.Condition)
	assert.Equal(t, models.ListingActive, created.Status)

	code, _ = s.do(t, http.MethodPost, "/v1/listings",
		`{"user_id":1,"card_id":"base1-999","condition":"nm","quantity":1,"price":"1"}`)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(t, http.MethodPatch, "/v1/listings/"+strconv.FormatInt(created.ID, 10), `{"quantity":0}`)
	require.Equal(t, http.StatusOK, code)
	var updated models.Listing
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	assert.Equal(t, models.ListingSold, updated.Status)

	code, _ = s.do(t, http.MethodGet, "/v1/listings?user_id=1", "")
	assert.Equal(t, http.StatusOK, code)

	code, _ = s.do(t, http.MethodGet, "/v1/listings/abc", "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = s.do(t, http.MethodDelete, "/v1/listings/"+strconv.FormatInt(created.ID, 10), "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(t, http.MethodGet, "/v1/listings/"+strconv.FormatInt(created.ID, 10), "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestValidationAndDashboard(t *testing.T) {
	s := newTestServer(t)

	code, env := s.do(t, http.MethodGet, "/v1/validation", "")
	require.Equal(t, http.StatusOK, code)
	var report models.ValidationReport
	require.NoError(t, json.Unmarshal(env.Data, &report))
	assert.True(t, report.Passed)

	code, env = s.do(t, http.MethodGet, "/v1/dashboard/stats", "")
	require.Equal(t, http.StatusOK, code)
	var stats models.DashboardStats
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, 2, stats.Inventory.Cards)
	assert.Equal(t, 1, stats.Inventory.HighTier)
}

func TestUpdateCardPriceStatus(t *testing.T) {
	s := newTestServer(t)
	s.source.CardsByID["base1-4"] = cardapi.Card{
		ID:  "base1-4",
		Set: cardapi.Set{ID: "base1"},
		TCGPlayer: &cardapi.Market{Prices: map[string]cardapi.PriceRange{
			"holofoil": {Market: storetest.Price("455.00")},
		}},
	}
	s.source.Errs["base1-58"] = &cardapi.StatusError{StatusCode: http.StatusServiceUnavailable}

	code, env := s.do(t, http.MethodPost, "/v1/prices/cards/base1-4", "")
	require.Equal(t, http.StatusOK, code)
	var res models.PriceUpdateResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Success)
	assert.Equal(t, "455", res.NewPrice.Decimal.String())

	code, env = s.do(t, http.MethodPost, "/v1/prices/cards/base1-58", "")
	assert.Equal(t, http.StatusBadGateway, code)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.False(t, res.Success)
	assert.Equal(t, "base1-58", res.CardID)
	assert.Equal(t, "3.1", s.db.Cards["base1-58"].MarketPrice.Decimal.String())

	// known locally, gone from the card api
	s.db.AddCard(models.Card{ID: "base1-99", SetID: "base1", Name: "Missingno"})
	code, env = s.do(t, http.MethodPost, "/v1/prices/cards/base1-99", "")
	assert.Equal(t, http.StatusNotFound, code)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "card no longer exists in card api", res.Error)

	code, _ = s.do(t, http.MethodPost, "/v1/prices/cards/nope", "")
	assert.Equal(t, http.StatusNotFound, code)
}
