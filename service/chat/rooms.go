package chat

import (
	"context"
	"strings"
	"time"

	"ChatHub/module/room/model"
	"ChatHub/tools/decode"
	errs "ChatHub/tools/errs"
	"ChatHub/tools/ids"
)

// roomSnapshot builds the normalized room payload for one viewer. The
// snapshot is per-recipient because a private room is displayed under
// the other participant's name.
func (s *Server) roomSnapshot(ctx context.Context, room *model.Room, viewerID string) (*model.Snapshot, error) {
	parts, err := s.store.Participants(ctx, room.RoomID)
	if err != nil {
		return nil, err
	}
	userIDs := make([]string, 0, len(parts))
	for _, p := range parts {
		userIDs = append(userIDs, p.UserID)
	}
	users, err := s.store.UsersByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	members := make([]model.Member, 0, len(users))
	name := room.Name
	for _, u := range users {
		members = append(members, model.Member{
			UserID:   u.UserID,
			Name:     u.Name,
			Nickname: u.Nickname,
			FaceURL:  u.FaceURL,
		})
		if room.Type == model.RoomTypePrivate && u.UserID != viewerID {
			if u.Nickname != "" {
				name = u.Nickname
			} else {
				name = u.Name
			}
		}
	}

	return &model.Snapshot{
		RoomID:       room.RoomID,
		Type:         room.Type,
		Name:         name,
		CreatorID:    room.CreatorID,
		Participants: members,
	}, nil
}

// fanOutRoomAdded wires a member's live connections into the room and
// sends them their tailored snapshot, skipping exceptConn so the
// originating client is not told what it already knows. Offline members
// get nothing; they pick the room up on their next connect.
func (s *Server) fanOutRoomAdded(ctx context.Context, room *model.Room, userID, exceptConn string) error {
	conns := s.coord.OnJoinRoom(room.RoomID, userID)
	if len(conns) == 0 {
		return nil
	}
	snap, err := s.roomSnapshot(ctx, room, userID)
	if err != nil {
		return err
	}
	data := marshalFrame(EvtRoomAdded, "", snap)
	for _, connID := range conns {
		if connID == exceptConn {
			continue
		}
		s.emitToConns([]string{connID}, data)
	}
	return nil
}

type createRoomPayload struct {
	Name           string   `json:"name"`
	Type           string   `json:"type"`
	ParticipantIDs []string `json:"participantIds"`
}

func (s *Server) handleRoomCreate(ctx context.Context, c *WsConn, f *Frame) error {
	p, err := decode.DecodeMap[createRoomPayload](f.Data)
	if err != nil {
		return errs.ErrArgs.WrapMsg(err.Error())
	}
	if p.Type == "" {
		p.Type = model.RoomTypeGroup
	}
	if p.Type != model.RoomTypeGroup && p.Type != model.RoomTypePrivate {
		return errs.ErrArgs.WrapMsg("unknown room type", "type", p.Type)
	}
	if p.Type == model.RoomTypeGroup && strings.TrimSpace(p.Name) == "" {
		return errs.ErrArgs.WrapMsg("group room requires a name")
	}

	memberIDs := dedupe(append([]string{c.UserID}, p.ParticipantIDs...))
	if p.Type == model.RoomTypePrivate && len(memberIDs) != 2 {
		return errs.ErrArgs.WrapMsg("private room requires exactly one other participant")
	}

	room := &model.Room{
		RoomID:    ids.GenerateString(),
		Type:      p.Type,
		Name:      strings.TrimSpace(p.Name),
		CreatorID: c.UserID,
		CreatedAt: time.Now(),
	}
	if err := s.store.CreateRoom(ctx, room, memberIDs); err != nil {
		return err
	}

	// wire every connected participant and hand them their snapshot;
	// the creator's reply below carries the frame id
	for _, userID := range memberIDs {
		if err := s.fanOutRoomAdded(ctx, room, userID, c.ConnID); err != nil {
			return err
		}
	}

	snap, err := s.roomSnapshot(ctx, room, c.UserID)
	if err != nil {
		return err
	}
	s.reply(c, EvtRoomAdded, f.ID, snap)
	s.publish(EvtRoomAdded, snap)
	return nil
}

type invitePayload struct {
	RoomID  string   `json:"roomId"`
	UserIDs []string `json:"userIds"`
}

// inviteResult is one per-invitee outcome; the aggregate preserves the
// request's input order.
type inviteResult struct {
	UserID string `json:"userId"`
	Status string `json:"status"` // fulfilled | rejected
	Reason string `json:"reason,omitempty"`
}

func (s *Server) handleRoomInvite(ctx context.Context, c *WsConn, f *Frame) error {
	p, err := decode.DecodeMap[invitePayload](f.Data)
	if err != nil {
		return errs.ErrArgs.WrapMsg(err.Error())
	}
	if len(p.UserIDs) == 0 {
		return errs.ErrArgs.WrapMsg("no users to invite")
	}

	room, err := s.store.GetRoom(ctx, p.RoomID)
	if err != nil {
		return err
	}
	if room.Type != model.RoomTypeGroup {
		return errs.ErrArgs.WrapMsg("cannot invite into a private room", "room", p.RoomID)
	}
	ok, err := s.store.IsParticipant(ctx, p.RoomID, c.UserID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.ErrNoPermission.WrapMsg("not a member of room", "room", p.RoomID)
	}

	results := make([]inviteResult, 0, len(p.UserIDs))
	var added []string
	for _, userID := range p.UserIDs {
		created, err := s.store.AddParticipant(ctx, p.RoomID, userID, c.UserID)
		switch {
		case err != nil:
			results = append(results, inviteResult{UserID: userID, Status: "rejected", Reason: err.Error()})
		case !created:
			// already a non-left member; no re-wiring, no duplicate snapshot
			results = append(results, inviteResult{UserID: userID, Status: "rejected", Reason: "already a participant"})
		default:
			results = append(results, inviteResult{UserID: userID, Status: "fulfilled"})
			added = append(added, userID)
		}
	}

	if len(added) > 0 {
		if err := s.store.TouchRoom(ctx, p.RoomID); err != nil {
			return err
		}
		for _, userID := range added {
			if err := s.fanOutRoomAdded(ctx, room, userID, ""); err != nil {
				return err
			}
		}
		// existing members see the refreshed membership; the new members
		// already got their snapshot and the inviter gets the aggregate
		snap, err := s.roomSnapshot(ctx, room, c.UserID)
		if err != nil {
			return err
		}
		s.broadcastRoomExcept(p.RoomID, EvtRoomUpdated, snap, c.ConnID, added)
		s.publish(EvtRoomUpdated, snap)
	}

	s.reply(c, EvtRoomInviteResult, f.ID, map[string]any{
		"roomId":  p.RoomID,
		"results": results,
	})
	return nil
}

type joinRoomPayload struct {
	ID string `json:"id"`
}

// handleRoomJoinOrCreate joins a preview room: a room the user can see
// (search result, pending private chat) but has not joined yet. The
// upsert makes a repeated join harmless.
func (s *Server) handleRoomJoinOrCreate(ctx context.Context, c *WsConn, f *Frame) error {
	p, err := decode.DecodeMap[joinRoomPayload](f.Data)
	if err != nil {
		return errs.ErrArgs.WrapMsg(err.Error())
	}
	if p.ID == "" {
		return errs.ErrArgs.WrapMsg("missing room id")
	}

	room, err := s.store.GetRoom(ctx, p.ID)
	if err != nil {
		return err
	}

	created, err := s.store.AddParticipant(ctx, room.RoomID, c.UserID, c.UserID)
	if err != nil {
		return err
	}

	// wire all of the joining user's connections; the snapshot reply
	// below covers the originating one
	s.coord.OnJoinRoom(room.RoomID, c.UserID)

	snap, err := s.roomSnapshot(ctx, room, c.UserID)
	if err != nil {
		return err
	}
	s.emitUser(c.UserID, EvtRoomAdded, "", snap, c.ConnID)
	s.reply(c, EvtRoomAdded, f.ID, snap)

	if created {
		// standard room-update notice to the members already connected,
		// tailored per viewer because private room names are relative
		for userID := range s.coord.Audience(room.RoomID) {
			if userID == c.UserID {
				continue
			}
			memberSnap, err := s.roomSnapshot(ctx, room, userID)
			if err != nil {
				return err
			}
			s.emitUser(userID, EvtRoomUpdated, "", memberSnap, "")
		}
		s.publish(EvtRoomUpdated, snap)
	}
	return nil
}

// broadcastRoomExcept is broadcastRoom with a set of excluded users.
func (s *Server) broadcastRoomExcept(roomID, event string, payload any, exceptConn string, exceptUsers []string) {
	skip := make(map[string]struct{}, len(exceptUsers))
	for _, u := range exceptUsers {
		skip[u] = struct{}{}
	}
	data := marshalFrame(event, "", payload)
	for userID, connIDs := range s.coord.Audience(roomID) {
		if _, drop := skip[userID]; drop {
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

func dedupe(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, v := range in {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
