package domain

import "time"

// Conversation is a two-party thread, optionally scoped to a product.
// Participants are stored in canonical order: User1ID < User2ID. A
// unique constraint over (product_id, user1_id, user2_id) guarantees at
// most one conversation per pair and scope.
type Conversation struct {
	ID             int64     `json:"id"`
	ProductID      *int64    `json:"product_id,omitempty"`
	User1ID        int64     `json:"user1_id"`
	User2ID        int64     `json:"user2_id"`
	HiddenForUser1 bool      `json:"-"`
	HiddenForUser2 bool      `json:"-"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type Message struct {
	ID                int64      `json:"id"`
	ConversationID    int64      `json:"conversation_id"`
	SenderID          int64      `json:"sender_id"`
	Body              string     `json:"body"`
	CreatedAt         time.Time  `json:"created_at"`
	ReadAt            *time.Time `json:"read_at,omitempty"`
	IsDeletedBySender bool       `json:"-"`
}

// ConversationSummary is the list-view shape: the conversation plus the
// most recent visible message and the viewer's unread count.
type ConversationSummary struct {
	ID          int64    `json:"id"`
	ProductID   *int64   `json:"product_id,omitempty"`
	User1ID     int64    `json:"user1_id"`
	User2ID     int64    `json:"user2_id"`
	LastMessage *Message `json:"last_message,omitempty"`
	UnreadCount int64    `json:"unread_count"`
}

const MaxMessageBodyLen = 2000

// OrderPair puts two user ids in canonical order so that lookups are
// independent of who initiates the conversation.
func OrderPair(a, b int64) (int64, int64) {
	if a < b {
		return a, b
	}
	return b, a
}

func (c *Conversation) HasParticipant(userID int64) bool {
	return userID == c.User1ID || userID == c.User2ID
}

func (c *Conversation) HiddenFor(userID int64) bool {
	switch userID {
	case c.User1ID:
		return c.HiddenForUser1
	case c.User2ID:
		return c.HiddenForUser2
	default:
		return false
	}
}
