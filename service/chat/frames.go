package chat

import (
	"encoding/json"
	"fmt"

	errs "ChatHub/tools/errs"
)

// inbound event names
const (
	EvtRoomCreate       = "room:create"
	EvtRoomInvite       = "room:invite"
	EvtRoomJoinOrCreate = "room:join-or-create"
	EvtToggleTyping     = "user:toggle-typing"
	EvtMsgStandard      = "message:standard"
	EvtMsgEdit          = "message:edit"
	EvtMsgDelete        = "message:delete"
	EvtMsgForward       = "message:forward"
	EvtMsgPin           = "message:pin"
	EvtMsgRead          = "message:read"
)

// outbound event names
const (
	EvtConnectAck       = "connect:ack"
	EvtError            = "error"
	EvtRoomAdded        = "room:added"
	EvtRoomUpdated      = "room:updated"
	EvtRoomInviteResult = "room:invite-result"
	EvtUserTyping       = "user:typing"
	EvtUserOnline       = "user:online"
	EvtUserOffline      = "user:offline"
	EvtMsgNew           = "message:new"
	EvtMsgUpdated       = "message:updated"
	EvtMsgDeleted       = "message:deleted"
	EvtMsgPinned        = "message:pinned"
	EvtMsgReadBy        = "message:read-by"
)

// Frame is the inbound JSON envelope: one event per websocket message.
// ID is a client-chosen request id echoed on the reply or error frame.
type Frame struct {
	Event string         `json:"event"`
	ID    string         `json:"id,omitempty"`
	Data  map[string]any `json:"data,omitempty"`
}

func ParseFrame(raw []byte) (*Frame, error) {
	frame := &Frame{}
	if err := json.Unmarshal(raw, frame); err != nil {
		return nil, fmt.Errorf("unmarshal frame failed: %w", err)
	}
	if frame.Event == "" {
		return nil, fmt.Errorf("frame missing event")
	}
	return frame, nil
}

type outFrame struct {
	Event string `json:"event"`
	ID    string `json:"id,omitempty"`
	Data  any    `json:"data,omitempty"`
}

func marshalFrame(event, id string, data any) []byte {
	b, err := json.Marshal(outFrame{Event: event, ID: id, Data: data})
	if err != nil {
		// payloads are our own structs/maps; a marshal failure is a defect
		panic(fmt.Sprintf("marshal outbound frame %s: %v", event, err))
	}
	return b
}

type errorPayload struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
	Event  string `json:"event,omitempty"` // the inbound event that failed
}

// buildErrorFrame maps any handler error to the scoped error frame sent
// back to the originating connection only.
func buildErrorFrame(inbound *Frame, err error) []byte {
	ce := errs.CodeOf(err)
	p := errorPayload{Code: ce.Code, Msg: ce.Msg, Detail: ce.Detail}
	id := ""
	if inbound != nil {
		p.Event = inbound.Event
		id = inbound.ID
	}
	return marshalFrame(EvtError, id, p)
}
