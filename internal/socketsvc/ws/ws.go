package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait = 10 * time.Second
	sendQueue = 64 // events buffered per socket before it counts as stalled
)

// client owns one socket. Only its writer goroutine calls WriteMessage.
type client struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Ws tracks the connected dashboard sockets.
type Ws struct {
	connMap sync.Map // socketId -> *client
}

func NewWs() *Ws {
	return &Ws{}
}

func (s *Ws) StoreConnection(socketId string, conn *websocket.Conn) {
	c := &client{
		conn: conn,
		send: make(chan []byte, sendQueue),
		done: make(chan struct{}),
	}
	s.connMap.Store(socketId, c)
	go s.writer(socketId, c)
}

func (s *Ws) writer(socketId string, c *client) {
	for {
		select {
		case <-c.done:
			return
		case payload := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				log.Warnf("dropping socket %s: %s", socketId, err)
				s.HandleDisconnect(socketId)
				return
			}
		}
	}
}

func (s *Ws) HandleDisconnect(socketId string) {
	if c, ok := s.connMap.LoadAndDelete(socketId); ok {
		c.(*client).close()
	}
}

func (s *Ws) Count() int {
	n := 0
	s.connMap.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// Broadcast queues payload for every socket without waiting on any of them.
// A socket whose queue is full is dropped. Returns how many sockets it was
// queued for.
func (s *Ws) Broadcast(payload []byte) int {
	queued := 0
	s.connMap.Range(func(key, value any) bool {
		c := value.(*client)
		select {
		case c.send <- payload:
			queued++
		case <-c.done:
		default:
			log.Warnf("dropping stalled socket %s", key.(string))
			s.HandleDisconnect(key.(string))
		}
		return true
	})
	return queued
}

// Ping keeps idle connections alive through proxies. WriteControl is safe
// next to the writer goroutine.
func (s *Ws) Ping() {
	deadline := time.Now().Add(writeWait)
	s.connMap.Range(func(key, value any) bool {
		if err := value.(*client).conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
			s.HandleDisconnect(key.(string))
		}
		return true
	})
}
