package presence

import (
	"context"
	"time"

	"ChatHub/logger"
)

// StatusStore persists online/offline presence (redis write-through).
type StatusStore interface {
	SetOnline(ctx context.Context, userID, connID string) error
	SetOffline(ctx context.Context, userID, connID string, lastConn bool) error
}

// Notifier fans presence transitions out to the rooms a user was
// attached to. Implemented by the gateway.
type Notifier interface {
	UserOnline(userID string, roomIDs []string)
	UserOffline(userID string, roomIDs []string)
}

// Coordinator owns the Registry and ties it to the lifecycle of real
// connect/disconnect events and storage-backed room membership. The
// gateway never touches the registry maps directly.
type Coordinator struct {
	reg      *Registry
	status   StatusStore
	notifier Notifier

	statusTimeout time.Duration
}

func NewCoordinator(reg *Registry, status StatusStore) *Coordinator {
	return &Coordinator{
		reg:           reg,
		status:        status,
		statusTimeout: 2 * time.Second,
	}
}

// Bind attaches the fan-out notifier. Two-phase because the gateway is
// constructed with the coordinator it notifies through.
func (c *Coordinator) Bind(n Notifier) { c.notifier = n }

// OnConnect registers the connection and bulk-joins every room the user
// is already a persistent member of. The presence write-through failure
// is logged, never fatal: registry state is the source of truth for
// live fan-out.
func (c *Coordinator) OnConnect(ctx context.Context, connID, userID string, persistedRoomIDs []string) error {
	_, hadConns := c.reg.ConnectionsForUser(userID)

	c.reg.RegisterConnection(userID, connID)
	for _, roomID := range persistedRoomIDs {
		if err := c.reg.JoinRoom(roomID, userID); err != nil {
			return err
		}
	}

	if c.status != nil {
		sctx, cancel := context.WithTimeout(ctx, c.statusTimeout)
		if err := c.status.SetOnline(sctx, userID, connID); err != nil {
			logger.Errorf("[presence] set online failed user=%s conn=%s err=%v", userID, connID, err)
		}
		cancel()
	}

	// presence transition fires only on the first connection; a second
	// tab of an already-online user is invisible to other members
	if !hadConns && c.notifier != nil {
		c.notifier.UserOnline(userID, persistedRoomIDs)
	}
	return nil
}

// OnDisconnect tears the connection down. Unknown connIDs are a no-op:
// transports may deliver duplicate disconnects.
func (c *Coordinator) OnDisconnect(ctx context.Context, connID string) (userID string, roomIDs []string, ok bool) {
	userID, roomIDs, ok = c.reg.LeaveAllRooms(connID)
	if !ok {
		return "", nil, false
	}

	_, stillOnline := c.reg.ConnectionsForUser(userID)

	if c.status != nil {
		sctx, cancel := context.WithTimeout(ctx, c.statusTimeout)
		if err := c.status.SetOffline(sctx, userID, connID, !stillOnline); err != nil {
			logger.Errorf("[presence] set offline failed user=%s conn=%s err=%v", userID, connID, err)
		}
		cancel()
	}

	if !stillOnline && c.notifier != nil {
		c.notifier.UserOffline(userID, roomIDs)
	}
	return userID, roomIDs, true
}

// OnJoinRoom wires all live connections of a user newly added to a
// room's persistent membership. For an offline user nothing happens
// here; membership is already recorded in storage and delivery resumes
// on their next connect.
func (c *Coordinator) OnJoinRoom(roomID, userID string) []string {
	conns, ok := c.reg.JoinRoomIfUserConnected(roomID, userID)
	if !ok {
		return nil
	}
	return conns
}

// Audience returns the live membership of a room: user_id -> conn ids.
func (c *Coordinator) Audience(roomID string) map[string][]string {
	return c.reg.UsersInRoom(roomID)
}

// UserConns returns the open connections of one user, nil when offline.
func (c *Coordinator) UserConns(userID string) []string {
	conns, ok := c.reg.ConnectionsForUser(userID)
	if !ok {
		return nil
	}
	return conns
}

// IsUserInRoom reports live room attachment for permission checks on
// room-addressed events.
func (c *Coordinator) IsUserInRoom(userID, roomID string) (bool, error) {
	return c.reg.IsUserInRoom(userID, roomID)
}
