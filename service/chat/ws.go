package chat

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"ChatHub/logger"
	"ChatHub/tools/ids"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handshakeToken pulls the session token from the handshake metadata:
// Authorization: Bearer <token>, or ?token= for browser clients that
// cannot set websocket headers.
func handshakeToken(r *http.Request) string {
	if authz := strings.TrimSpace(r.Header.Get("Authorization")); authz != "" {
		if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			return strings.TrimSpace(authz[len("bearer "):])
		}
		return authz
	}
	return r.URL.Query().Get("token")
}

// HandleWS runs one connection end to end: upgrade, authenticate, bulk
// join, then the read loop. Frames from one connection are processed in
// arrival order; no ordering holds across connections.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[HandleWS] upgrade websocket error: %v", err)
		return
	}

	connID := ids.GenerateString()
	wc := newWsConn(connID, ws, s.conf.SendQueueSize)
	wc.setState(StateConnecting)

	// AUTHENTICATING: a connection that fails here is rejected before it
	// ever reaches the registry.
	wc.setState(StateAuthenticating)
	actx, cancel := context.WithTimeout(context.Background(), s.conf.EventTimeout)
	userID, err := s.auth.Verify(actx, handshakeToken(c.Request))
	cancel()
	if err != nil {
		logger.Infof("[HandleWS] auth rejected conn=%s err=%v", connID, err)
		data := buildErrorFrame(nil, err)
		_ = ws.SetWriteDeadline(time.Now().Add(s.conf.WriteWait))
		_ = ws.WriteMessage(websocket.TextMessage, data)
		_ = ws.Close()
		return
	}
	wc.UserID = userID

	rctx, cancel := context.WithTimeout(context.Background(), s.conf.EventTimeout)
	roomIDs, err := s.store.RoomIDsForUser(rctx, userID)
	cancel()
	if err != nil {
		logger.Errorf("[HandleWS] load rooms failed conn=%s user=%s err=%v", connID, userID, err)
		_ = ws.Close()
		return
	}

	s.track(wc)
	octx, cancel := context.WithTimeout(context.Background(), s.conf.EventTimeout)
	err = s.coord.OnConnect(octx, connID, userID, roomIDs)
	cancel()
	if err != nil {
		logger.Errorf("[HandleWS] onConnect failed conn=%s user=%s err=%v", connID, userID, err)
		s.untrack(connID)
		_ = ws.Close()
		return
	}
	wc.setState(StateActive)

	go wc.writeLoop(s.conf.PingInterval, s.conf.WriteWait)
	s.reply(wc, EvtConnectAck, "", map[string]any{
		"connId": connID,
		"userId": userID,
		"rooms":  roomIDs,
	})
	logger.Infof("[HandleWS] active conn=%s user=%s rooms=%d", connID, userID, len(roomIDs))

	_ = ws.SetReadDeadline(time.Now().Add(s.conf.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(s.conf.PongWait))
	})
	ws.SetReadLimit(1 << 20) // 1MB

	// read loop: reads only; the write loop owns the socket for writes
	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[WS] peer closed conn=%s err=%v", connID, rerr)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[WS] read timeout conn=%s err=%v", connID, rerr)
			} else {
				logger.Infof("[WS] read err conn=%s err=%v", connID, rerr)
			}
			break
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrame(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[WS] ParseFrame err conn=%s err=%v sample=%q", connID, perr, sample)
			continue
		}

		s.dispatch(wc, frame)
	}

	// teardown: drop from the conn table before the registry fan-out so
	// the offline notice never targets the dying socket
	s.untrack(connID)
	dctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	if user, rooms, ok := s.coord.OnDisconnect(dctx, connID); ok {
		logger.Infof("[WS] disconnected conn=%s user=%s rooms=%d", connID, user, len(rooms))
	}
	cancel()
	wc.close()
}
