package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_RegisterAndLookup(t *testing.T) {
	r := NewRegistry()
	r.RegisterConnection("u1", "c1")

	conns, ok := r.ConnectionsForUser("u1")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"c1"}, conns)

	_, ok = r.ConnectionsForUser("u2")
	assert.False(t, ok)
}

func TestRegistry_BulkJoinSingleConnection(t *testing.T) {
	r := NewRegistry()
	r.RegisterConnection("u1", "c1")
	require.NoError(t, r.JoinRoom("r1", "u1"))

	room := r.UsersInRoom("r1")
	require.Contains(t, room, "u1")
	assert.ElementsMatch(t, []string{"c1"}, room["u1"])
}

func TestRegistry_SecondConnectionDoesNotAutoJoin(t *testing.T) {
	r := NewRegistry()
	r.RegisterConnection("u1", "c1")
	require.NoError(t, r.JoinRoom("r1", "u1"))

	// registering alone must not attach c2 to r1
	r.RegisterConnection("u1", "c2")
	room := r.UsersInRoom("r1")
	assert.ElementsMatch(t, []string{"c1"}, room["u1"])

	// a full join (what OnConnect does for c2's rooms) attaches both
	require.NoError(t, r.JoinRoom("r1", "u1"))
	room = r.UsersInRoom("r1")
	assert.ElementsMatch(t, []string{"c1", "c2"}, room["u1"])
}

func TestRegistry_JoinRoomIfUserConnected(t *testing.T) {
	r := NewRegistry()

	// offline user: no side effect, no reverse-map entry
	conns, ok := r.JoinRoomIfUserConnected("r1", "ghost")
	assert.False(t, ok)
	assert.Nil(t, conns)
	assert.Empty(t, r.UsersInRoom("r1"))

	// online user: returns the exact connection list and the reverse
	// map reflects the join
	r.RegisterConnection("u1", "c1")
	r.RegisterConnection("u1", "c2")
	conns, ok = r.JoinRoomIfUserConnected("r1", "u1")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"c1", "c2"}, conns)
	assert.ElementsMatch(t, []string{"c1", "c2"}, r.UsersInRoom("r1")["u1"])
}

func TestRegistry_JoinRoomOfflineUserIsDefect(t *testing.T) {
	r := NewRegistry()
	assert.Error(t, r.JoinRoom("r1", "nobody"))
}

func TestRegistry_ForwardAndReverseMapsAgree(t *testing.T) {
	r := NewRegistry()
	r.RegisterConnection("u1", "c1")
	r.RegisterConnection("u1", "c2")
	r.RegisterConnection("u2", "c3")
	require.NoError(t, r.JoinRoom("r1", "u1"))
	require.NoError(t, r.JoinRoom("r1", "u2"))
	require.NoError(t, r.JoinRoom("r2", "u1"))

	// every connection listed in a room must belong to a user whose
	// connection set contains it
	for _, roomID := range []string{"r1", "r2"} {
		for userID, conns := range r.UsersInRoom(roomID) {
			userConns, ok := r.ConnectionsForUser(userID)
			require.True(t, ok)
			for _, c := range conns {
				assert.Contains(t, userConns, c)
				in, err := r.IsConnectionInRoom(c, roomID)
				require.NoError(t, err)
				assert.True(t, in)
			}
		}
	}
}

func TestRegistry_LeaveAllRooms(t *testing.T) {
	r := NewRegistry()
	r.RegisterConnection("u1", "c1")
	r.RegisterConnection("u1", "c2")
	require.NoError(t, r.JoinRoom("r1", "u1"))
	require.NoError(t, r.JoinRoom("r2", "u1"))

	userID, roomIDs, ok := r.LeaveAllRooms("c1")
	require.True(t, ok)
	assert.Equal(t, "u1", userID)
	assert.ElementsMatch(t, []string{"r1", "r2"}, roomIDs)

	// u1 still present through c2
	conns, ok := r.ConnectionsForUser("u1")
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"c2"}, conns)
	assert.ElementsMatch(t, []string{"c2"}, r.UsersInRoom("r1")["u1"])

	// last connection removes the user entirely
	_, _, ok = r.LeaveAllRooms("c2")
	require.True(t, ok)
	_, ok = r.ConnectionsForUser("u1")
	assert.False(t, ok)
	assert.Empty(t, r.UsersInRoom("r1"))
	assert.Empty(t, r.UsersInRoom("r2"))
}

func TestRegistry_LeaveAllRoomsUnknownConnTolerated(t *testing.T) {
	r := NewRegistry()
	_, _, ok := r.LeaveAllRooms("never-registered")
	assert.False(t, ok)

	// duplicate disconnect: second call is a no-op, not a panic
	r.RegisterConnection("u1", "c1")
	_, _, ok = r.LeaveAllRooms("c1")
	require.True(t, ok)
	_, _, ok = r.LeaveAllRooms("c1")
	assert.False(t, ok)
}

func TestRegistry_LeaveOneRoom(t *testing.T) {
	r := NewRegistry()
	r.RegisterConnection("u1", "c1")
	require.NoError(t, r.JoinRoom("r1", "u1"))
	require.NoError(t, r.JoinRoom("r2", "u1"))

	userID, remaining, err := r.LeaveOneRoom("c1", "r1")
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
	assert.ElementsMatch(t, []string{"r2"}, remaining)
	assert.Empty(t, r.UsersInRoom("r1"))
	assert.ElementsMatch(t, []string{"c1"}, r.UsersInRoom("r2")["u1"])

	_, _, err = r.LeaveOneRoom("cX", "r2")
	assert.Error(t, err)
}

func TestRegistry_EmptyRoomEntriesArePruned(t *testing.T) {
	r := NewRegistry()
	r.RegisterConnection("u1", "c1")
	require.NoError(t, r.JoinRoom("r1", "u1"))
	_, _, ok := r.LeaveAllRooms("c1")
	require.True(t, ok)

	// churny rooms must not accumulate empty map entries
	r.mu.RLock()
	defer r.mu.RUnlock()
	assert.NotContains(t, r.rooms, "r1")
	assert.NotContains(t, r.users, "u1")
	assert.NotContains(t, r.conns, "c1")
}

func TestRegistry_IsUserInRoomValidation(t *testing.T) {
	r := NewRegistry()
	_, err := r.IsUserInRoom("", "r1")
	assert.Error(t, err)
	_, err = r.IsUserInRoom("u1", "")
	assert.Error(t, err)

	in, err := r.IsUserInRoom("u1", "r1")
	require.NoError(t, err)
	assert.False(t, in)

	r.RegisterConnection("u1", "c1")
	require.NoError(t, r.JoinRoom("r1", "u1"))
	in, err = r.IsUserInRoom("u1", "r1")
	require.NoError(t, err)
	assert.True(t, in)
}

func TestRegistry_IsConnectionInRoomUnknownConn(t *testing.T) {
	r := NewRegistry()
	_, err := r.IsConnectionInRoom("cX", "r1")
	assert.Error(t, err)
}
