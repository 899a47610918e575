package messaging

import "time"

// Message is immutable once created except for the one-way unread→read
// transition on read_at.
type Message struct {
	ID          string     `gorm:"type:uuid;primaryKey"`
	SenderID    string     `gorm:"type:uuid;index;not null"`
	RecipientID string     `gorm:"type:uuid;index;not null"`
	Content     string     `gorm:"type:text;not null"`
	CreatedAt   time.Time  `gorm:"autoCreateTime"`
	ReadAt      *time.Time `gorm:"column:read_at"`
}

// MessageView joins a message with sender display fields.
type MessageView struct {
	Message
	SenderFirstName string `gorm:"column:sender_first_name"`
	SenderLastName  string `gorm:"column:sender_last_name"`
	SenderRole      string `gorm:"column:sender_role"`
}

// Conversation is derived, never stored: one row per counterpart the user
// has exchanged messages with.
type Conversation struct {
	OtherUserID     string    `gorm:"column:other_user_id"`
	FirstName       string    `gorm:"column:first_name"`
	LastName        string    `gorm:"column:last_name"`
	Role            string    `gorm:"column:role"`
	LastMessage     string    `gorm:"column:last_message"`
	LastMessageTime time.Time `gorm:"column:last_message_time"`
	UnreadCount     int64     `gorm:"column:unread_count"`
}

type ListFilter struct {
	Limit  int
	Offset int
}
