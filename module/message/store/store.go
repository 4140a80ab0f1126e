package store

import (
	"context"
	"time"

	"ChatHub/module/message/model"
	errs "ChatHub/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const collMessages = "messages"

type Repo struct {
	DB *mongo.Database
}

func (r *Repo) InsertMessage(ctx context.Context, m *model.Message) error {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now()
	}
	_, err := r.DB.Collection(collMessages).InsertOne(ctx, m)
	return errs.WrapMsg(err, "insert message", "message", m.MessageID)
}

func (r *Repo) GetMessage(ctx context.Context, messageID string) (*model.Message, error) {
	var m model.Message
	err := r.DB.Collection(collMessages).FindOne(ctx,
		bson.M{"message_id": messageID, "deleted": false}).Decode(&m)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrRecordNotFound.WrapMsg("message not found", "message", messageID)
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &m, nil
}

// UpdateBody is last-write-wins; concurrent edits race at the storage
// layer with no conflict detection.
func (r *Repo) UpdateBody(ctx context.Context, messageID, body string) (*model.Message, error) {
	now := time.Now()
	res := r.DB.Collection(collMessages).FindOneAndUpdate(ctx,
		bson.M{"message_id": messageID, "deleted": false},
		bson.M{"$set": bson.M{"body": body, "edited_at": now}},
		findAfter(),
	)
	var m model.Message
	if err := res.Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errs.ErrRecordNotFound.WrapMsg("message not found", "message", messageID)
		}
		return nil, errs.Wrap(err)
	}
	return &m, nil
}

// MarkDeleted soft-deletes; the row stays for read receipts already
// referencing it.
func (r *Repo) MarkDeleted(ctx context.Context, messageID string) error {
	res, err := r.DB.Collection(collMessages).UpdateOne(ctx,
		bson.M{"message_id": messageID, "deleted": false},
		bson.M{"$set": bson.M{"deleted": true}})
	if err != nil {
		return errs.Wrap(err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrRecordNotFound.WrapMsg("message not found", "message", messageID)
	}
	return nil
}

func (r *Repo) SetPinned(ctx context.Context, messageID string, pinned bool) (*model.Message, error) {
	res := r.DB.Collection(collMessages).FindOneAndUpdate(ctx,
		bson.M{"message_id": messageID, "deleted": false},
		bson.M{"$set": bson.M{"pinned": pinned}},
		findAfter(),
	)
	var m model.Message
	if err := res.Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, errs.ErrRecordNotFound.WrapMsg("message not found", "message", messageID)
		}
		return nil, errs.Wrap(err)
	}
	return &m, nil
}

// MarkRead records the reader on the message; $addToSet keeps the
// operation idempotent under duplicate read events.
func (r *Repo) MarkRead(ctx context.Context, messageID, userID string) error {
	res, err := r.DB.Collection(collMessages).UpdateOne(ctx,
		bson.M{"message_id": messageID},
		bson.M{"$addToSet": bson.M{"read_by": userID}})
	if err != nil {
		return errs.Wrap(err)
	}
	if res.MatchedCount == 0 {
		return errs.ErrRecordNotFound.WrapMsg("message not found", "message", messageID)
	}
	return nil
}
