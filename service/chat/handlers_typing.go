package chat

import (
	"context"

	"ChatHub/tools/decode"
	errs "ChatHub/tools/errs"
)

type toggleTypingPayload struct {
	RoomID   string `json:"roomId"`
	IsTyping bool   `json:"isTyping"`
}

type typingView struct {
	RoomID  string   `json:"roomId"`
	UserIDs []string `json:"userIds"` // everyone currently typing in the room
}

// handleToggleTyping persists the flag, then fans the room's full
// typing list out so clients replace rather than merge typing state.
func (s *Server) handleToggleTyping(ctx context.Context, c *WsConn, f *Frame) error {
	p, err := decode.DecodeMap[toggleTypingPayload](f.Data)
	if err != nil {
		return errs.ErrArgs.WrapMsg(err.Error())
	}
	if err := s.requireLiveMember(c.UserID, p.RoomID); err != nil {
		return err
	}

	if err := s.typing.SetTyping(ctx, p.RoomID, c.UserID, p.IsTyping); err != nil {
		return err
	}
	typers, err := s.typing.TypingUsers(ctx, p.RoomID)
	if err != nil {
		return err
	}
	if typers == nil {
		typers = []string{}
	}

	s.broadcastRoom(p.RoomID, EvtUserTyping, typingView{RoomID: p.RoomID, UserIDs: typers}, c.ConnID, "")
	return nil
}
