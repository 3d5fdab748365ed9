package ws

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHub(t *testing.T) (*Ws, string) {
	t.Helper()
	s := NewWs()
	upgrader := websocket.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		s.StoreConnection(uuid.New().String(), conn)
	}))
	t.Cleanup(func() {
		s.connMap.Range(func(key, _ any) bool {
			s.HandleDisconnect(key.(string))
			return true
		})
		srv.Close()
	})
	return s, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestBroadcastDelivers(t *testing.T) {
	s, url := newHub(t)
	conn := dial(t, url)
	require.Eventually(t, func() bool { return s.Count() == 1 }, time.Second, 5*time.Millisecond)

	assert.Equal(t, 1, s.Broadcast([]byte(`{"type":"price-burst"}`)))
	assert.Equal(t, 1, s.Broadcast([]byte(`{"type":"price-run-done"}`)))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, first, err := conn.ReadMessage()
	require.NoError(t, err)
	_, second, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"price-burst"}`, string(first))
	assert.JSONEq(t, `{"type":"price-run-done"}`, string(second))
}

func TestStalledSocketDoesNotHoldUpOthers(t *testing.T) {
	s, url := newHub(t)
	reader := dial(t, url)
	_ = dial(t, url) // never reads
	require.Eventually(t, func() bool { return s.Count() == 2 }, time.Second, 5*time.Millisecond)

	const events = 300
	var received atomic.Int32
	go func() {
		for {
			if _, _, err := reader.ReadMessage(); err != nil {
				return
			}
			received.Add(1)
		}
	}()

	// large enough to fill the loopback buffers of the idle socket
	payload := bytes.Repeat([]byte("x"), 128<<10)
	start := time.Now()
	for range events {
		s.Broadcast(payload)
		time.Sleep(time.Millisecond)
	}
	assert.Less(t, time.Since(start), writeWait/2)

	require.Eventually(t, func() bool { return received.Load() == events }, 5*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return s.Count() == 1 }, 5*time.Second, 10*time.Millisecond)
}

func TestHandleDisconnectIsIdempotent(t *testing.T) {
	s, url := newHub(t)
	dial(t, url)
	require.Eventually(t, func() bool { return s.Count() == 1 }, time.Second, 5*time.Millisecond)

	var id string
	s.connMap.Range(func(key, _ any) bool {
		id = key.(string)
		return false
	})
	s.HandleDisconnect(id)
	s.HandleDisconnect(id)
	assert.Zero(t, s.Count())
	assert.Zero(t, s.Broadcast([]byte("{}")))
}
