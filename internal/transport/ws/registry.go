package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4 * 1024
)

// connection pairs a websocket with its outbound queue. A single writer
// goroutine owns all writes, including heartbeat pings.
type connection struct {
	conn *websocket.Conn
	send chan []byte

	closeOnce sync.Once
	done      chan struct{}
}

func newConnection(conn *websocket.Conn) *connection {
	return &connection{
		conn: conn,
		send: make(chan []byte, 32),
		done: make(chan struct{}),
	}
}

// enqueue offers a message without blocking. False means the connection is
// closed or its buffer is saturated; the caller treats both as delivery
// failure and prunes.
func (c *connection) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *connection) close() {
	c.closeOnce.Do(func() { close(c.done) })
}

func (c *connection) writePump(heartbeat time.Duration) {
	ticker := time.NewTicker(heartbeat)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// ConnectionRegistry maps participant IDs to their live connections. Entries
// are removed when the connection closes or a send to it fails.
type ConnectionRegistry struct {
	mu    sync.RWMutex
	conns map[string]*connection
}

func NewConnectionRegistry() *ConnectionRegistry {
	return &ConnectionRegistry{conns: make(map[string]*connection)}
}

func (r *ConnectionRegistry) register(participantID string, c *connection) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[participantID] = c
}

func (r *ConnectionRegistry) get(participantID string) (*connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[participantID]
	return c, ok
}

// Remove closes and forgets the participant's connection, if any.
func (r *ConnectionRegistry) Remove(participantID string) {
	r.mu.Lock()
	c, ok := r.conns[participantID]
	if ok {
		delete(r.conns, participantID)
	}
	r.mu.Unlock()
	if ok {
		c.close()
	}
}

// Len reports the number of live connections.
func (r *ConnectionRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
