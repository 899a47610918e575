package messaging

import "context"

type Repository interface {
	Create(ctx context.Context, message *Message) error
	// ListBetween returns messages exchanged by the pair, newest first.
	ListBetween(ctx context.Context, userID, otherUserID string, limit, offset int) ([]MessageView, error)
	// MarkRead stamps read_at on all unread messages sent to recipientID by
	// senderID and reports how many rows changed.
	MarkRead(ctx context.Context, recipientID, senderID string) (int64, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	Conversations(ctx context.Context, userID string) ([]Conversation, error)
}
