package presence

import (
	errs "ChatHub/tools/errs"
	"sync"
)

// connEntry is the per-connection record: the owning user and the rooms
// this connection has joined.
type connEntry struct {
	userID string
	rooms  map[string]struct{}
}

// Registry is the in-memory index between users, their live connections
// and the rooms those connections have joined. One instance per process,
// owned by the Coordinator; nothing else mutates it.
//
// Every read/write runs to completion under the lock and never touches
// I/O, so audience lookups are always consistent with the latest
// membership mutation.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*connEntry                     // conn_id -> entry
	users map[string]map[string]struct{}            // user_id -> conn_id set
	rooms map[string]map[string]map[string]struct{} // room_id -> user_id -> conn_id set
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]*connEntry),
		users: make(map[string]map[string]struct{}),
		rooms: make(map[string]map[string]map[string]struct{}),
	}
}

// RegisterConnection records a new connection for a user. The caller
// guarantees connID uniqueness (snowflake per accepted socket).
// Registration alone joins no rooms; bulk join happens in OnConnect.
func (r *Registry) RegisterConnection(userID, connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[connID] = &connEntry{userID: userID, rooms: make(map[string]struct{})}
	set := r.users[userID]
	if set == nil {
		set = make(map[string]struct{})
		r.users[userID] = set
	}
	set[connID] = struct{}{}
}

// JoinRoomIfUserConnected wires all of the user's current connections
// into the room and returns them, but only when the user has at least
// one open connection. Returns (nil, false) with no side effect for an
// offline user: a room may be created with offline members, and only
// online members need their sockets attached to the broadcast group.
func (r *Registry) JoinRoomIfUserConnected(roomID, userID string) ([]string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.users[userID]
	if len(set) == 0 {
		return nil, false
	}
	return r.joinLocked(roomID, userID, set), true
}

// JoinRoom is the unconditional variant used when the caller already
// confirmed connectivity (bulk join at connect time). Calling it for a
// user with no open connection is a programming error.
func (r *Registry) JoinRoom(roomID, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.users[userID]
	if len(set) == 0 {
		return errs.ErrInternalServer.WrapMsg("join room for user with no connections", "room", roomID, "user", userID)
	}
	r.joinLocked(roomID, userID, set)
	return nil
}

// joinLocked attaches every connection in set to the room's reverse map
// and records the room on each connection entry. Caller holds r.mu.
func (r *Registry) joinLocked(roomID, userID string, set map[string]struct{}) []string {
	byUser := r.rooms[roomID]
	if byUser == nil {
		byUser = make(map[string]map[string]struct{})
		r.rooms[roomID] = byUser
	}
	conns := byUser[userID]
	if conns == nil {
		conns = make(map[string]struct{})
		byUser[userID] = conns
	}

	out := make([]string, 0, len(set))
	for connID := range set {
		conns[connID] = struct{}{}
		if e := r.conns[connID]; e != nil {
			e.rooms[roomID] = struct{}{}
		}
		out = append(out, connID)
	}
	return out
}

// LeaveAllRooms removes the connection from every room it had joined
// and drops it from the user's connection set, pruning the user entry
// when it was the last connection. An unknown connID returns ok=false
// and mutates nothing: transports may deliver duplicate disconnects.
func (r *Registry) LeaveAllRooms(connID string) (userID string, roomIDs []string, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, found := r.conns[connID]
	if !found {
		return "", nil, false
	}
	delete(r.conns, connID)

	roomIDs = make([]string, 0, len(e.rooms))
	for roomID := range e.rooms {
		roomIDs = append(roomIDs, roomID)
		r.leaveRoomLocked(roomID, e.userID, connID)
	}

	if set := r.users[e.userID]; set != nil {
		delete(set, connID)
		if len(set) == 0 {
			delete(r.users, e.userID)
		}
	}
	return e.userID, roomIDs, true
}

// LeaveOneRoom removes a single room membership for one connection,
// leaving its other rooms and the user's other connections untouched.
// Returns the owning user and the connection's remaining rooms.
func (r *Registry) LeaveOneRoom(connID, roomID string) (userID string, roomIDs []string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, found := r.conns[connID]
	if !found {
		return "", nil, errs.ErrInternalServer.WrapMsg("leave room for unknown connection", "conn", connID, "room", roomID)
	}
	delete(e.rooms, roomID)
	r.leaveRoomLocked(roomID, e.userID, connID)

	roomIDs = make([]string, 0, len(e.rooms))
	for id := range e.rooms {
		roomIDs = append(roomIDs, id)
	}
	return e.userID, roomIDs, nil
}

// leaveRoomLocked detaches one connection from the room reverse map,
// pruning emptied user sets and the room entry itself. Caller holds r.mu.
func (r *Registry) leaveRoomLocked(roomID, userID, connID string) {
	byUser := r.rooms[roomID]
	if byUser == nil {
		return
	}
	if conns := byUser[userID]; conns != nil {
		delete(conns, connID)
		if len(conns) == 0 {
			delete(byUser, userID)
		}
	}
	if len(byUser) == 0 {
		delete(r.rooms, roomID)
	}
}

// UsersInRoom returns a copy of the room's live membership:
// user_id -> connection ids.
func (r *Registry) UsersInRoom(roomID string) map[string][]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	byUser := r.rooms[roomID]
	out := make(map[string][]string, len(byUser))
	for userID, conns := range byUser {
		ids := make([]string, 0, len(conns))
		for connID := range conns {
			ids = append(ids, connID)
		}
		out[userID] = ids
	}
	return out
}

// ConnectionsForUser returns the user's open connection ids, ok=false
// when the user has none.
func (r *Registry) ConnectionsForUser(userID string) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.users[userID]
	if len(set) == 0 {
		return nil, false
	}
	out := make([]string, 0, len(set))
	for connID := range set {
		out = append(out, connID)
	}
	return out, true
}

// IsUserInRoom reports whether any of the user's connections is
// attached to the room. Empty ids indicate a caller bug.
func (r *Registry) IsUserInRoom(userID, roomID string) (bool, error) {
	if userID == "" || roomID == "" {
		return false, errs.ErrArgs.WrapMsg("empty id", "user", userID, "room", roomID)
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	byUser := r.rooms[roomID]
	if byUser == nil {
		return false, nil
	}
	return len(byUser[userID]) > 0, nil
}

// IsConnectionInRoom reports whether the given connection joined the
// room. The connection must be registered.
func (r *Registry) IsConnectionInRoom(connID, roomID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, found := r.conns[connID]
	if !found {
		return false, errs.ErrArgs.WrapMsg("unknown connection", "conn", connID)
	}
	_, in := e.rooms[roomID]
	return in, nil
}
