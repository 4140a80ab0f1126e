package chat

import (
	"encoding/json"
	"testing"

	errs "ChatHub/tools/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFrame(t *testing.T) {
	f, err := ParseFrame([]byte(`{"event":"message:standard","id":"42","data":{"roomId":"r1","body":"hi"}}`))
	require.NoError(t, err)
	assert.Equal(t, EvtMsgStandard, f.Event)
	assert.Equal(t, "42", f.ID)
	assert.Equal(t, "r1", f.Data["roomId"])

	_, err = ParseFrame([]byte(`not json`))
	assert.Error(t, err)

	_, err = ParseFrame([]byte(`{"id":"1","data":{}}`))
	assert.Error(t, err, "frame without an event name is invalid")
}

func TestMarshalFrameOmitsEmptyID(t *testing.T) {
	raw := marshalFrame(EvtMsgNew, "", map[string]any{"x": 1})
	var m map[string]any
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, EvtMsgNew, m["event"])
	assert.NotContains(t, m, "id")

	raw = marshalFrame(EvtMsgNew, "7", nil)
	require.NoError(t, json.Unmarshal(raw, &m))
	assert.Equal(t, "7", m["id"])
}

func TestBuildErrorFrame(t *testing.T) {
	in := &Frame{Event: EvtMsgStandard, ID: "req-1"}
	raw := buildErrorFrame(in, errs.ErrNoPermission.WrapMsg("not a member"))

	var f recvFrame
	require.NoError(t, json.Unmarshal(raw, &f))
	assert.Equal(t, EvtError, f.Event)
	assert.Equal(t, "req-1", f.ID)
	assert.EqualValues(t, errs.NoPermissionError, f.Data["code"])
	assert.Equal(t, EvtMsgStandard, f.Data["event"])
	assert.Contains(t, f.Data["detail"], "not a member")
}

func TestBuildErrorFrameWrapsPlainErrors(t *testing.T) {
	raw := buildErrorFrame(nil, assert.AnError)
	var f recvFrame
	require.NoError(t, json.Unmarshal(raw, &f))
	assert.EqualValues(t, errs.ServerInternalError, f.Data["code"])
	assert.Empty(t, f.ID)
}
