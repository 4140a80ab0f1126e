package store

import (
	"context"
	"time"

	"ChatHub/module/user/model"
	errs "ChatHub/tools/errs"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const collUsers = "users"

type Repo struct {
	DB *mongo.Database
}

func (r *Repo) GetUser(ctx context.Context, userID string) (*model.User, error) {
	var u model.User
	err := r.DB.Collection(collUsers).FindOne(ctx, bson.M{"user_id": userID}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrRecordNotFound.WrapMsg("user not found", "user", userID)
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &u, nil
}

func (r *Repo) GetUserByName(ctx context.Context, name string) (*model.User, error) {
	var u model.User
	err := r.DB.Collection(collUsers).FindOne(ctx, bson.M{"name": name}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, errs.ErrRecordNotFound.WrapMsg("user not found", "name", name)
	}
	if err != nil {
		return nil, errs.Wrap(err)
	}
	return &u, nil
}

func (r *Repo) UsersByIDs(ctx context.Context, userIDs []string) ([]model.User, error) {
	cur, err := r.DB.Collection(collUsers).Find(ctx, bson.M{"user_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, errs.Wrap(err)
	}
	var out []model.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, errs.Wrap(err)
	}
	return out, nil
}

// CreateUser inserts a user if the name is free; returns the existing
// row when taken (login-or-register flow).
func (r *Repo) CreateUser(ctx context.Context, u *model.User) (*model.User, error) {
	now := time.Now()
	u.CreatedAt, u.UpdatedAt = now, now
	res := r.DB.Collection(collUsers).FindOneAndUpdate(ctx,
		bson.M{"name": u.Name},
		bson.M{"$setOnInsert": u},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	var out model.User
	if err := res.Decode(&out); err != nil {
		return nil, errs.Wrap(err)
	}
	return &out, nil
}
