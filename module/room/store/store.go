package store

import (
	"context"
	"time"

	"ChatHub/module/room/model"
	errs "ChatHub/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	collRooms        = "rooms"
	collParticipants = "participants"
)

type Repo struct {
	DB *mongo.Database
}

// CreateRoom persists the room and its initial participants in one
// transaction so a half-created room is never observable.
func (r *Repo) CreateRoom(ctx context.Context, room *model.Room, memberIDs []string) error {
	now := time.Now()
	room.CreatedAt, room.UpdatedAt = now, now

	docs := make([]any, 0, len(memberIDs))
	for _, uid := range memberIDs {
		docs = append(docs, model.Participant{
			RoomID:    room.RoomID,
			UserID:    uid,
			InviterID: room.CreatorID,
			JoinedAt:  now,
		})
	}

	sess, err := r.DB.Client().StartSession()
	if err != nil {
		return errs.Wrap(err)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		if _, err := r.DB.Collection(collRooms).InsertOne(sc, room); err != nil {
			return nil, err
		}
		if len(docs) > 0 {
			if _, err := r.DB.Collection(collParticipants).InsertMany(sc, docs); err != nil {
				return nil, err
			}
		}
		return nil, nil
	})
	return errs.WrapMsg(err, "create room", "room", room.RoomID)
}

func (r *Repo) GetRoom(ctx context.Context, roomID string) (*model.Room, error) {
	var room model.Room
	err := r.DB.Collection(collRooms).FindOne(ctx, bson.M{"room_id": roomID}).Decode(&room)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrRecordNotFound.WrapMsg("room not found", "room", roomID)
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &room, nil
}

// RoomIDsForUser lists the rooms the user is an active member of; used
// for the bulk join at connect time.
func (r *Repo) RoomIDsForUser(ctx context.Context, userID string) ([]string, error) {
	cur, err := r.DB.Collection(collParticipants).Find(ctx,
		bson.M{"user_id": userID, "left_at": nil})
	if err != nil {
		return nil, errs.Wrap(err)
	}
	var rows []model.Participant
	if err := cur.All(ctx, &rows); err != nil {
		return nil, errs.Wrap(err)
	}
	out := make([]string, 0, len(rows))
	for _, p := range rows {
		out = append(out, p.RoomID)
	}
	return out, nil
}

// Participants lists the room's active members.
func (r *Repo) Participants(ctx context.Context, roomID string) ([]model.Participant, error) {
	cur, err := r.DB.Collection(collParticipants).Find(ctx,
		bson.M{"room_id": roomID, "left_at": nil})
	if err != nil {
		return nil, errs.Wrap(err)
	}
	var out []model.Participant
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.Wrap(err)
	}
	return out, nil
}

func (r *Repo) IsParticipant(ctx context.Context, roomID, userID string) (bool, error) {
	n, err := r.DB.Collection(collParticipants).CountDocuments(ctx,
		bson.M{"room_id": roomID, "user_id": userID, "left_at": nil})
	if err != nil {
		return false, errs.Wrap(err)
	}
	return n > 0, nil
}

// AddParticipant upserts a membership row and reports whether it was a
// genuine insert. A user who is already an active member yields
// created=false; detection rides on the driver's upsert result, not on
// timestamp comparison.
func (r *Repo) AddParticipant(ctx context.Context, roomID, userID, inviterID string) (created bool, err error) {
	res, err := r.DB.Collection(collParticipants).UpdateOne(ctx,
		bson.M{"room_id": roomID, "user_id": userID, "left_at": nil},
		bson.M{"$setOnInsert": model.Participant{
			RoomID:    roomID,
			UserID:    userID,
			InviterID: inviterID,
			JoinedAt:  time.Now(),
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, errs.WrapMsg(err, "add participant", "room", roomID, "user", userID)
	}
	return res.UpsertedCount == 1, nil
}

func (r *Repo) TouchRoom(ctx context.Context, roomID string) error {
	_, err := r.DB.Collection(collRooms).UpdateOne(ctx,
		bson.M{"room_id": roomID},
		bson.M{"$set": bson.M{"updated_at": time.Now()}})
	return errs.Wrap(err)
}
