package gateway

import (
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxCommandSize = 4 << 10
	sendBuffer     = 32
)

var errSendBufferFull = errors.New("connection send buffer full")

// connection pairs one WebSocket with a buffered outbound queue. All writes
// go through the write pump; enqueue never blocks on socket I/O.
type connection struct {
	id string
	ws *websocket.Conn

	send chan []byte

	closeOnce sync.Once
	closed    chan struct{}
}

func newConnection(id string, ws *websocket.Conn) *connection {
	return &connection{
		id:     id,
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		closed: make(chan struct{}),
	}
}

// enqueue hands a frame to the write pump. A full buffer means the client is
// not keeping up; the caller treats that like a dead socket.
func (c *connection) enqueue(frame []byte) error {
	select {
	case <-c.closed:
		return errors.New("connection closed")
	case c.send <- frame:
		return nil
	default:
		return errSendBufferFull
	}
}

// close makes enqueue fail fast and tears down the socket. Safe to repeat.
func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.ws.Close()
	})
}

// writePump serializes all writes to the socket and keeps the peer alive with
// pings. It exits when the connection is closed or a write fails.
func (c *connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.close()
	}()

	for {
		select {
		case <-c.closed:
			return
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
