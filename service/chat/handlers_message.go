package chat

import (
	"context"
	"strings"
	"time"

	"ChatHub/module/message/model"
	"ChatHub/tools/decode"
	errs "ChatHub/tools/errs"
	"ChatHub/tools/ids"
)

// MessageView is the normalized message payload fanned out to clients:
// enough to apply the change without a follow-up fetch.
type MessageView struct {
	MessageID       string `json:"messageId"`
	RoomID          string `json:"roomId"`
	SenderID        string `json:"senderId"`
	Kind            string `json:"kind"`
	Body            string `json:"body"`
	ForwardedFrom   string `json:"forwardedFrom,omitempty"`
	ForwardedSender string `json:"forwardedSender,omitempty"`
	Pinned          bool   `json:"pinned"`
	CreatedAt       int64  `json:"createdAt"`
	EditedAt        int64  `json:"editedAt,omitempty"`
}

func messageView(m *model.Message) MessageView {
	v := MessageView{
		MessageID:       m.MessageID,
		RoomID:          m.RoomID,
		SenderID:        m.SenderID,
		Kind:            string(m.Kind),
		Body:            m.Body,
		ForwardedFrom:   m.ForwardedFrom,
		ForwardedSender: m.ForwardedSender,
		Pinned:          m.Pinned,
		CreatedAt:       m.CreatedAt.UnixMilli(),
	}
	if m.EditedAt != nil {
		v.EditedAt = m.EditedAt.UnixMilli()
	}
	return v
}

// requireLiveMember gates room-addressed events on the sender actually
// being attached to the room's live group.
func (s *Server) requireLiveMember(userID, roomID string) error {
	if roomID == "" {
		return errs.ErrArgs.WrapMsg("missing roomId")
	}
	in, err := s.coord.IsUserInRoom(userID, roomID)
	if err != nil {
		return err
	}
	if !in {
		return errs.ErrNoPermission.WrapMsg("not a member of room", "room", roomID)
	}
	return nil
}

type sendMessagePayload struct {
	RoomID string `json:"roomId"`
	Body   string `json:"body"`
}

func (s *Server) handleMessageStandard(ctx context.Context, c *WsConn, f *Frame) error {
	p, err := decode.DecodeMap[sendMessagePayload](f.Data)
	if err != nil {
		return errs.ErrArgs.WrapMsg(err.Error())
	}
	if strings.TrimSpace(p.Body) == "" {
		return errs.ErrArgs.WrapMsg("empty message body")
	}
	if err := s.requireLiveMember(c.UserID, p.RoomID); err != nil {
		return err
	}

	m := &model.Message{
		MessageID: ids.GenerateString(),
		RoomID:    p.RoomID,
		SenderID:  c.UserID,
		Kind:      model.KindStandard,
		Body:      p.Body,
		CreatedAt: time.Now(),
	}
	if err := s.store.InsertMessage(ctx, m); err != nil {
		return err
	}

	view := messageView(m)
	s.broadcastRoom(p.RoomID, EvtMsgNew, view, "", "")
	s.publish(EvtMsgNew, view)
	return nil
}

type editMessagePayload struct {
	MessageID string `json:"messageId"`
	Body      string `json:"body"`
}

func (s *Server) handleMessageEdit(ctx context.Context, c *WsConn, f *Frame) error {
	p, err := decode.DecodeMap[editMessagePayload](f.Data)
	if err != nil {
		return errs.ErrArgs.WrapMsg(err.Error())
	}
	if strings.TrimSpace(p.Body) == "" {
		return errs.ErrArgs.WrapMsg("empty message body")
	}

	m, err := s.store.GetMessage(ctx, p.MessageID)
	if err != nil {
		return err
	}
	if m.SenderID != c.UserID {
		return errs.ErrNoPermission.WrapMsg("not the message sender", "message", p.MessageID)
	}

	updated, err := s.store.UpdateBody(ctx, p.MessageID, p.Body)
	if err != nil {
		return err
	}

	view := messageView(updated)
	s.broadcastRoom(m.RoomID, EvtMsgUpdated, view, "", "")
	s.publish(EvtMsgUpdated, view)
	return nil
}

type deleteMessagePayload struct {
	MessageID string `json:"messageId"`
}

func (s *Server) handleMessageDelete(ctx context.Context, c *WsConn, f *Frame) error {
	p, err := decode.DecodeMap[deleteMessagePayload](f.Data)
	if err != nil {
		return errs.ErrArgs.WrapMsg(err.Error())
	}

	m, err := s.store.GetMessage(ctx, p.MessageID)
	if err != nil {
		return err
	}
	if m.SenderID != c.UserID {
		return errs.ErrNoPermission.WrapMsg("not the message sender", "message", p.MessageID)
	}
	if err := s.store.MarkDeleted(ctx, p.MessageID); err != nil {
		return err
	}

	payload := map[string]any{"messageId": p.MessageID, "roomId": m.RoomID}
	s.broadcastRoom(m.RoomID, EvtMsgDeleted, payload, "", "")
	s.publish(EvtMsgDeleted, payload)
	return nil
}

type forwardMessagePayload struct {
	MessageID string `json:"messageId"`
	ToRoomID  string `json:"toRoomId"`
}

func (s *Server) handleMessageForward(ctx context.Context, c *WsConn, f *Frame) error {
	p, err := decode.DecodeMap[forwardMessagePayload](f.Data)
	if err != nil {
		return errs.ErrArgs.WrapMsg(err.Error())
	}
	if err := s.requireLiveMember(c.UserID, p.ToRoomID); err != nil {
		return err
	}

	orig, err := s.store.GetMessage(ctx, p.MessageID)
	if err != nil {
		return err
	}
	// sender must have access to the original through its room
	ok, err := s.store.IsParticipant(ctx, orig.RoomID, c.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrNoPermission.WrapMsg("no access to source message", "message", p.MessageID)
	}

	// the variant is fixed here, at the storage boundary
	m := &model.Message{
		MessageID:       ids.GenerateString(),
		RoomID:          p.ToRoomID,
		SenderID:        c.UserID,
		Kind:            model.KindForwarded,
		Body:            orig.Body,
		ForwardedFrom:   orig.MessageID,
		ForwardedSender: orig.SenderID,
		CreatedAt:       time.Now(),
	}
	if err := s.store.InsertMessage(ctx, m); err != nil {
		return err
	}

	view := messageView(m)
	s.broadcastRoom(p.ToRoomID, EvtMsgNew, view, "", "")
	s.publish(EvtMsgNew, view)
	return nil
}

type pinMessagePayload struct {
	MessageID string `json:"messageId"`
	Pinned    bool   `json:"pinned"`
}

func (s *Server) handleMessagePin(ctx context.Context, c *WsConn, f *Frame) error {
	p, err := decode.DecodeMap[pinMessagePayload](f.Data)
	if err != nil {
		return errs.ErrArgs.WrapMsg(err.Error())
	}

	m, err := s.store.GetMessage(ctx, p.MessageID)
	if err != nil {
		return err
	}
	if err := s.requireLiveMember(c.UserID, m.RoomID); err != nil {
		return err
	}

	updated, err := s.store.SetPinned(ctx, p.MessageID, p.Pinned)
	if err != nil {
		return err
	}

	payload := map[string]any{
		"messageId": updated.MessageID,
		"roomId":    updated.RoomID,
		"pinned":    updated.Pinned,
	}
	s.broadcastRoom(m.RoomID, EvtMsgPinned, payload, "", "")
	s.publish(EvtMsgPinned, payload)
	return nil
}

type readMessagePayload struct {
	MessageID string `json:"messageId"`
}

func (s *Server) handleMessageRead(ctx context.Context, c *WsConn, f *Frame) error {
	p, err := decode.DecodeMap[readMessagePayload](f.Data)
	if err != nil {
		return errs.ErrArgs.WrapMsg(err.Error())
	}

	m, err := s.store.GetMessage(ctx, p.MessageID)
	if err != nil {
		return err
	}
	if err := s.requireLiveMember(c.UserID, m.RoomID); err != nil {
		return err
	}
	if err := s.store.MarkRead(ctx, p.MessageID, c.UserID); err != nil {
		return err
	}

	// the originating connection already knows it read the message;
	// everyone else (sender's other tabs included) gets the receipt
	payload := map[string]any{
		"messageId": p.MessageID,
		"roomId":    m.RoomID,
		"userId":    c.UserID,
	}
	s.broadcastRoom(m.RoomID, EvtMsgReadBy, payload, c.ConnID, "")
	s.publish(EvtMsgReadBy, payload)
	return nil
}
