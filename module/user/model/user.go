package model

import "time"

// User is the account record. Auth here is deliberately thin: verify a
// session token into a user id; everything else lives elsewhere.
type User struct {
	UserID       string    `bson:"user_id"`
	Name         string    `bson:"name"` // login name, unique
	Nickname     string    `bson:"nickname"`
	FaceURL      string    `bson:"face_url"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}
