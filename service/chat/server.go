package chat

import (
	"context"
	"sync"
	"time"

	"ChatHub/logger"
	msgmodel "ChatHub/module/message/model"
	roommodel "ChatHub/module/room/model"
	usermodel "ChatHub/module/user/model"
	"ChatHub/service/presence"
	errs "ChatHub/tools/errs"
)

// Store is the persistence collaborator. Every state mutation an event
// performs goes through here, and always commits before any fan-out.
type Store interface {
	// rooms
	CreateRoom(ctx context.Context, room *roommodel.Room, memberIDs []string) error
	GetRoom(ctx context.Context, roomID string) (*roommodel.Room, error)
	RoomIDsForUser(ctx context.Context, userID string) ([]string, error)
	Participants(ctx context.Context, roomID string) ([]roommodel.Participant, error)
	IsParticipant(ctx context.Context, roomID, userID string) (bool, error)
	AddParticipant(ctx context.Context, roomID, userID, inviterID string) (created bool, err error)
	TouchRoom(ctx context.Context, roomID string) error

	// messages
	InsertMessage(ctx context.Context, m *msgmodel.Message) error
	GetMessage(ctx context.Context, messageID string) (*msgmodel.Message, error)
	UpdateBody(ctx context.Context, messageID, body string) (*msgmodel.Message, error)
	MarkDeleted(ctx context.Context, messageID string) error
	SetPinned(ctx context.Context, messageID string, pinned bool) (*msgmodel.Message, error)
	MarkRead(ctx context.Context, messageID, userID string) error

	// users
	GetUser(ctx context.Context, userID string) (*usermodel.User, error)
	UsersByIDs(ctx context.Context, userIDs []string) ([]usermodel.User, error)
}

// Verifier is the auth collaborator: session token -> user id, invoked
// once per connection during the AUTHENTICATING state.
type Verifier interface {
	Verify(ctx context.Context, token string) (userID string, err error)
}

// TypingStore persists typing flags (redis, TTL'd).
type TypingStore interface {
	SetTyping(ctx context.Context, roomID, userID string, isTyping bool) error
	TypingUsers(ctx context.Context, roomID string) ([]string, error)
}

// EventRelay mirrors outbound events for out-of-process consumers.
// Publishing is at-most-effort and must never block the handler.
type EventRelay interface {
	Publish(event string, payload any)
}

type Config struct {
	PingInterval  time.Duration
	PongWait      time.Duration
	WriteWait     time.Duration
	SendQueueSize int
	EventTimeout  time.Duration // per inbound event, bounds storage I/O
}

func (c *Config) norm() {
	if c.PingInterval <= 0 {
		c.PingInterval = 25 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.EventTimeout <= 0 {
		c.EventTimeout = 10 * time.Second
	}
}

type handlerFunc func(ctx context.Context, c *WsConn, f *Frame) error

// Server is the event fan-out gateway. It owns no registry state of its
// own: membership questions go through the coordinator, sockets live in
// the conn table keyed by the same connection ids the registry holds.
type Server struct {
	conf  Config
	coord *presence.Coordinator
	store Store
	typing TypingStore
	auth  Verifier
	relay EventRelay

	mu    sync.RWMutex
	conns map[string]*WsConn // conn_id -> socket

	handlers map[string]handlerFunc
}

func NewServer(conf Config, coord *presence.Coordinator, store Store, typing TypingStore, auth Verifier, relay EventRelay) *Server {
	conf.norm()
	s := &Server{
		conf:   conf,
		coord:  coord,
		store:  store,
		typing: typing,
		auth:   auth,
		relay:  relay,
		conns:  make(map[string]*WsConn),
	}
	s.handlers = map[string]handlerFunc{
		EvtRoomCreate:       s.handleRoomCreate,
		EvtRoomInvite:       s.handleRoomInvite,
		EvtRoomJoinOrCreate: s.handleRoomJoinOrCreate,
		EvtToggleTyping:     s.handleToggleTyping,
		EvtMsgStandard:      s.handleMessageStandard,
		EvtMsgEdit:          s.handleMessageEdit,
		EvtMsgDelete:        s.handleMessageDelete,
		EvtMsgForward:       s.handleMessageForward,
		EvtMsgPin:           s.handleMessagePin,
		EvtMsgRead:          s.handleMessageRead,
	}
	coord.Bind(s)
	return s
}

func (s *Server) track(c *WsConn) {
	s.mu.Lock()
	s.conns[c.ConnID] = c
	s.mu.Unlock()
}

func (s *Server) untrack(connID string) {
	s.mu.Lock()
	delete(s.conns, connID)
	s.mu.Unlock()
}

// dispatch routes one inbound frame. Handler errors become an error
// frame on the originating connection only; other participants never
// see anything for an aborted operation.
func (s *Server) dispatch(c *WsConn, f *Frame) {
	h := s.handlers[f.Event]
	if h == nil {
		logger.Infof("[WS] no handler for event=%s conn=%s", f.Event, c.ConnID)
		return
	}
	if c.State() != StateActive || c.UserID == "" {
		c.enqueue(buildErrorFrame(f, errs.ErrTokenNotExist.WrapMsg("connection not active")))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), s.conf.EventTimeout)
	defer cancel()

	if err := h(ctx, c, f); err != nil {
		logger.Infof("[WS] event=%s conn=%s user=%s err=%v", f.Event, c.ConnID, c.UserID, err)
		c.enqueue(buildErrorFrame(f, err))
	}
}

// emitToConns delivers one marshaled frame to a set of connection ids.
// A connection missing from the table (raced a disconnect between
// audience lookup and emission) is a silently dropped target.
func (s *Server) emitToConns(connIDs []string, data []byte) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, id := range connIDs {
		if c, ok := s.conns[id]; ok {
			c.enqueue(data)
		}
	}
}

// broadcastRoom sends an event to every connection currently joined to
// the room, excluding exceptConn and every connection of exceptUser
// when set. Users with zero live connections simply receive nothing.
func (s *Server) broadcastRoom(roomID, event string, payload any, exceptConn, exceptUser string) {
	data := marshalFrame(event, "", payload)
	for userID, connIDs := range s.coord.Audience(roomID) {
		if userID == exceptUser {
			continue
		}
		for _, connID := range connIDs {
			if connID == exceptConn {
				continue
			}
			s.emitToConns([]string{connID}, data)
		}
	}
}

// emitUser sends an event to every live connection of one user, minus
// exceptConn. Offline users are a silent no-op.
func (s *Server) emitUser(userID, event, id string, payload any, exceptConn string) {
	data := marshalFrame(event, id, payload)
	for _, connID := range s.coord.UserConns(userID) {
		if connID == exceptConn {
			continue
		}
		s.emitToConns([]string{connID}, data)
	}
}

// reply sends a frame to the originating connection, echoing its id.
func (s *Server) reply(c *WsConn, event, id string, payload any) {
	c.enqueue(marshalFrame(event, id, payload))
}

type presencePayload struct {
	UserID string `json:"userId"`
	Online bool   `json:"online"`
}

// UserOnline implements presence.Notifier: first connection of a user
// announces them to every room they were bulk-joined into.
func (s *Server) UserOnline(userID string, roomIDs []string) {
	for _, roomID := range roomIDs {
		s.broadcastRoom(roomID, EvtUserOnline, presencePayload{UserID: userID, Online: true}, "", userID)
	}
	s.publish(EvtUserOnline, presencePayload{UserID: userID, Online: true})
}

// UserOffline implements presence.Notifier: fired after the user's last
// connection is cleaned up, towards the rooms it had joined.
func (s *Server) UserOffline(userID string, roomIDs []string) {
	for _, roomID := range roomIDs {
		s.broadcastRoom(roomID, EvtUserOffline, presencePayload{UserID: userID, Online: false}, "", userID)
	}
	s.publish(EvtUserOffline, presencePayload{UserID: userID, Online: false})
}

func (s *Server) publish(event string, payload any) {
	if s.relay != nil {
		s.relay.Publish(event, payload)
	}
}
