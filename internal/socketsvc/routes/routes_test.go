package routes

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/avvvet/pokecard-services/internal/socketsvc/ws"
	"github.com/go-chi/chi"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) (*httptest.Server, *ws.Ws, string) {
	t.Helper()
	tokenAuth := InitAuth("test-secret")
	_, token, err := tokenAuth.Encode(map[string]interface{}{
		"service_id": "dashboard",
		"exp":        time.Now().Add(time.Hour).Unix(),
	})
	require.NoError(t, err)

	s := ws.NewWs()
	r := chi.NewRouter()
	SetRoutes(r, s, tokenAuth, "0", func(*http.Request) bool { return true })

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, s, token
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/ws"
}

func TestHealthIsPublic(t *testing.T) {
	srv, _, _ := newServer(t)

	resp, err := http.Get(srv.URL + "/v1/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWebSocketRequiresToken(t *testing.T) {
	srv, _, _ := newServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketReceivesBroadcast(t *testing.T) {
	srv, s, token := newServer(t)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv)+"?jwt="+token, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return s.Count() == 1 }, time.Second, 10*time.Millisecond)

	payload := []byte(`{"type":"sync-progress","data":{"processed":3},"source":"test"}`)
	assert.Equal(t, 1, s.Broadcast(payload))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, got, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, string(payload), string(got))
}

func TestWebSocketAcceptsBearerHeader(t *testing.T) {
	srv, s, token := newServer(t)

	header := http.Header{"Authorization": []string{"Bearer " + token}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return s.Count() == 1 }, time.Second, 10*time.Millisecond)
	conn.Close()
	require.Eventually(t, func() bool { return s.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
