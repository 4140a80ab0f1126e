package model

import "time"

// Kind is the message variant discriminant, resolved once at the
// storage boundary instead of sniffing payload fields downstream.
type Kind string

const (
	KindStandard  Kind = "standard"
	KindForwarded Kind = "forwarded"
)

type Message struct {
	MessageID string `bson:"message_id"`
	RoomID    string `bson:"room_id"`
	SenderID  string `bson:"sender_id"`
	Kind      Kind   `bson:"kind"`
	Body      string `bson:"body"`

	// forwarded variant only
	ForwardedFrom   string `bson:"forwarded_from,omitempty"`   // original message id
	ForwardedSender string `bson:"forwarded_sender,omitempty"` // original sender id

	Pinned  bool     `bson:"pinned"`
	ReadBy  []string `bson:"read_by,omitempty"`
	Deleted bool     `bson:"deleted"`

	CreatedAt time.Time  `bson:"created_at"`
	EditedAt  *time.Time `bson:"edited_at,omitempty"`
}
