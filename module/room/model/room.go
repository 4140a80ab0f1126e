package model

import "time"

const (
	RoomTypeGroup   = "group"
	RoomTypePrivate = "private"
)

// Room is the persistent room record. Membership lives in the
// participants collection, one row per room+user.
type Room struct {
	RoomID    string    `bson:"room_id"`
	Type      string    `bson:"type"` // group | private
	Name      string    `bson:"name"` // empty for private rooms; derived per viewer
	CreatorID string    `bson:"creator_id"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Participant is one user's membership in one room. A row with
// left_at == nil is an active member. Unique key: room_id+user_id.
type Participant struct {
	RoomID    string     `bson:"room_id"`
	UserID    string     `bson:"user_id"`
	InviterID string     `bson:"inviter_id"`
	JoinedAt  time.Time  `bson:"joined_at"`
	LeftAt    *time.Time `bson:"left_at,omitempty"`
}

// Member is a participant as rendered in a snapshot.
type Member struct {
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	FaceURL  string `json:"faceUrl"`
}

// Snapshot is the normalized room payload sent to one viewer. A private
// room's display name is the other participant's name, which is
// relative to the viewer, so snapshots are computed per recipient.
type Snapshot struct {
	RoomID       string   `json:"roomId"`
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	CreatorID    string   `json:"creatorId"`
	Participants []Member `json:"participants"`
}
