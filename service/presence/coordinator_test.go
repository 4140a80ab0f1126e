package presence

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusCall struct {
	op       string
	userID   string
	connID   string
	lastConn bool
}

type fakeStatus struct {
	calls []statusCall
	err   error
}

func (f *fakeStatus) SetOnline(_ context.Context, userID, connID string) error {
	f.calls = append(f.calls, statusCall{op: "online", userID: userID, connID: connID})
	return f.err
}

func (f *fakeStatus) SetOffline(_ context.Context, userID, connID string, lastConn bool) error {
	f.calls = append(f.calls, statusCall{op: "offline", userID: userID, connID: connID, lastConn: lastConn})
	return f.err
}

type presenceEvent struct {
	op      string
	userID  string
	roomIDs []string
}

type fakeNotifier struct {
	events []presenceEvent
}

func (f *fakeNotifier) UserOnline(userID string, roomIDs []string) {
	f.events = append(f.events, presenceEvent{op: "online", userID: userID, roomIDs: roomIDs})
}

func (f *fakeNotifier) UserOffline(userID string, roomIDs []string) {
	f.events = append(f.events, presenceEvent{op: "offline", userID: userID, roomIDs: roomIDs})
}

func newTestCoordinator(t *testing.T) (*Coordinator, *fakeStatus, *fakeNotifier) {
	t.Helper()
	status := &fakeStatus{}
	notifier := &fakeNotifier{}
	c := NewCoordinator(NewRegistry(), status)
	c.Bind(notifier)
	return c, status, notifier
}

func TestCoordinator_OnConnectBulkJoin(t *testing.T) {
	c, status, notifier := newTestCoordinator(t)

	require.NoError(t, c.OnConnect(context.Background(), "c1", "u1", []string{"r1", "r2"}))

	assert.ElementsMatch(t, []string{"c1"}, c.UserConns("u1"))
	assert.ElementsMatch(t, []string{"c1"}, c.Audience("r1")["u1"])
	assert.ElementsMatch(t, []string{"c1"}, c.Audience("r2")["u1"])

	require.Len(t, status.calls, 1)
	assert.Equal(t, statusCall{op: "online", userID: "u1", connID: "c1"}, status.calls[0])

	require.Len(t, notifier.events, 1)
	assert.Equal(t, "online", notifier.events[0].op)
	assert.ElementsMatch(t, []string{"r1", "r2"}, notifier.events[0].roomIDs)
}

func TestCoordinator_SecondConnectionNoTransition(t *testing.T) {
	c, _, notifier := newTestCoordinator(t)

	require.NoError(t, c.OnConnect(context.Background(), "c1", "u1", []string{"r1"}))
	require.NoError(t, c.OnConnect(context.Background(), "c2", "u1", []string{"r1"}))

	// only the first connection is a presence transition
	require.Len(t, notifier.events, 1)
	assert.ElementsMatch(t, []string{"c1", "c2"}, c.Audience("r1")["u1"])
}

func TestCoordinator_DisconnectKeepsUserUntilLastConn(t *testing.T) {
	c, status, notifier := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.OnConnect(ctx, "c1", "u1", []string{"r1"}))
	require.NoError(t, c.OnConnect(ctx, "c2", "u1", []string{"r1"}))
	status.calls = nil
	notifier.events = nil

	userID, roomIDs, ok := c.OnDisconnect(ctx, "c1")
	require.True(t, ok)
	assert.Equal(t, "u1", userID)
	assert.ElementsMatch(t, []string{"r1"}, roomIDs)
	assert.ElementsMatch(t, []string{"c2"}, c.UserConns("u1"))

	// offline write-through carries lastConn=false, no fan-out yet
	require.Len(t, status.calls, 1)
	assert.False(t, status.calls[0].lastConn)
	assert.Empty(t, notifier.events)

	_, _, ok = c.OnDisconnect(ctx, "c2")
	require.True(t, ok)
	assert.Nil(t, c.UserConns("u1"))
	require.Len(t, status.calls, 2)
	assert.True(t, status.calls[1].lastConn)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, "offline", notifier.events[0].op)
	assert.ElementsMatch(t, []string{"r1"}, notifier.events[0].roomIDs)
}

func TestCoordinator_DisconnectIdempotent(t *testing.T) {
	c, status, notifier := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, c.OnConnect(ctx, "c1", "u1", nil))
	_, _, ok := c.OnDisconnect(ctx, "c1")
	require.True(t, ok)

	status.calls = nil
	notifier.events = nil
	_, _, ok = c.OnDisconnect(ctx, "c1")
	assert.False(t, ok)
	assert.Empty(t, status.calls)
	assert.Empty(t, notifier.events)
}

func TestCoordinator_OnJoinRoom(t *testing.T) {
	c, _, _ := newTestCoordinator(t)
	ctx := context.Background()

	// offline member: nil, and the room audience stays untouched
	assert.Nil(t, c.OnJoinRoom("r1", "offline-user"))
	assert.Empty(t, c.Audience("r1"))

	require.NoError(t, c.OnConnect(ctx, "c1", "u1", nil))
	require.NoError(t, c.OnConnect(ctx, "c2", "u1", nil))
	conns := c.OnJoinRoom("r1", "u1")
	assert.ElementsMatch(t, []string{"c1", "c2"}, conns)

	in, err := c.IsUserInRoom("u1", "r1")
	require.NoError(t, err)
	assert.True(t, in)
}

func TestCoordinator_StatusFailureIsNotFatal(t *testing.T) {
	status := &fakeStatus{err: errors.New("redis down")}
	c := NewCoordinator(NewRegistry(), status)
	ctx := context.Background()

	// connect and disconnect both succeed despite write-through errors
	require.NoError(t, c.OnConnect(ctx, "c1", "u1", []string{"r1"}))
	assert.ElementsMatch(t, []string{"c1"}, c.Audience("r1")["u1"])

	_, _, ok := c.OnDisconnect(ctx, "c1")
	assert.True(t, ok)
	assert.Nil(t, c.UserConns("u1"))
}
