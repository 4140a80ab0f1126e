package chat

import (
	"sync"
	"sync/atomic"
	"time"

	"ChatHub/logger"

	"github.com/gorilla/websocket"
)

// connection lifecycle: CONNECTING -> AUTHENTICATING -> ACTIVE -> DISCONNECTED.
// Inbound frames are processed only while ACTIVE.
type ConnState int32

const (
	StateConnecting ConnState = iota
	StateAuthenticating
	StateActive
	StateDisconnected
)

// WsConn is one live transport connection. UserID is resolved once
// during AUTHENTICATING and immutable afterwards. Outbound frames go
// through the send queue; the write loop is the only goroutine that
// touches the socket for writes.
type WsConn struct {
	ConnID string
	UserID string

	conn  *websocket.Conn
	send  chan []byte
	state atomic.Int32

	closeOnce sync.Once
	closed    chan struct{}
}

func newWsConn(connID string, ws *websocket.Conn, queueSize int) *WsConn {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &WsConn{
		ConnID: connID,
		conn:   ws,
		send:   make(chan []byte, queueSize),
		closed: make(chan struct{}),
	}
}

func (c *WsConn) State() ConnState    { return ConnState(c.state.Load()) }
func (c *WsConn) setState(s ConnState) { c.state.Store(int32(s)) }

// enqueue hands a marshaled frame to the write loop. Never blocks: a
// receiver that stopped draining loses frames (it will resync on its
// next fetch) rather than stalling the sender's event handler.
func (c *WsConn) enqueue(data []byte) {
	select {
	case <-c.closed:
	case c.send <- data:
	default:
		logger.Warnf("[WS] send queue full, drop frame conn=%s user=%s", c.ConnID, c.UserID)
	}
}

// writeLoop drains the send queue and keeps the peer alive with pings.
// It owns the socket teardown: when the queue closes or a write fails
// it sends the close frame and closes the socket.
func (c *WsConn) writeLoop(pingInterval, writeWait time.Duration) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		_ = c.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = c.conn.Close()
	}()

	for {
		select {
		case <-c.closed:
			return
		case data := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				logger.Infof("[WS] write err conn=%s err=%v", c.ConnID, err)
				return
			}
		case <-ticker.C:
			if err := c.conn.WriteControl(websocket.PingMessage, nil,
				time.Now().Add(writeWait)); err != nil {
				logger.Infof("[WS] ping err conn=%s err=%v", c.ConnID, err)
				return
			}
		}
	}
}

func (c *WsConn) close() {
	c.closeOnce.Do(func() {
		c.setState(StateDisconnected)
		close(c.closed)
	})
}
