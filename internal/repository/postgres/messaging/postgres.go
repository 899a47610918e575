package messaging

import (
	"context"
	"time"

	"gorm.io/gorm"
	domain "therapy-support-go/internal/domain/messaging"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, message *domain.Message) error {
	return r.db.WithContext(ctx).Create(message).Error
}

func (r *PostgresRepository) ListBetween(ctx context.Context, userID, otherUserID string, limit, offset int) ([]domain.MessageView, error) {
	var messages []domain.MessageView
	err := r.db.WithContext(ctx).
		Raw(`SELECT m.*,
				s.first_name AS sender_first_name,
				s.last_name AS sender_last_name,
				s.role AS sender_role
			FROM messages m
			JOIN users s ON s.id = m.sender_id
			WHERE (m.sender_id = @a AND m.recipient_id = @b)
			   OR (m.sender_id = @b AND m.recipient_id = @a)
			ORDER BY m.created_at DESC
			LIMIT @limit OFFSET @offset`,
			map[string]interface{}{"a": userID, "b": otherUserID, "limit": limit, "offset": offset}).
		Scan(&messages).Error
	return messages, err
}

func (r *PostgresRepository) MarkRead(ctx context.Context, recipientID, senderID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("recipient_id = ? AND sender_id = ? AND read_at IS NULL", recipientID, senderID).
		Update("read_at", time.Now().UTC())
	return result.RowsAffected, result.Error
}

func (r *PostgresRepository) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Message{}).
		Where("recipient_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

// Conversations derives one row per counterpart: the counterpart's display
// fields, the latest message exchanged and its time, and how many of their
// messages the user has not read yet.
func (r *PostgresRepository) Conversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	var conversations []domain.Conversation
	err := r.db.WithContext(ctx).
		Raw(`WITH counterparts AS (
				SELECT DISTINCT CASE WHEN m.sender_id = @uid THEN m.recipient_id ELSE m.sender_id END AS other_user_id
				FROM messages m
				WHERE m.sender_id = @uid OR m.recipient_id = @uid
			)
			SELECT c.other_user_id,
				u.first_name,
				u.last_name,
				u.role,
				last.content AS last_message,
				last.created_at AS last_message_time,
				(SELECT COUNT(*) FROM messages m2
					WHERE m2.recipient_id = @uid AND m2.sender_id = c.other_user_id AND m2.read_at IS NULL) AS unread_count
			FROM counterparts c
			JOIN users u ON u.id = c.other_user_id
			JOIN LATERAL (
				SELECT content, created_at FROM messages m3
				WHERE (m3.sender_id = @uid AND m3.recipient_id = c.other_user_id)
				   OR (m3.recipient_id = @uid AND m3.sender_id = c.other_user_id)
				ORDER BY m3.created_at DESC
				LIMIT 1
			) last ON TRUE
			ORDER BY last.created_at DESC`,
			map[string]interface{}{"uid": userID}).
		Scan(&conversations).Error
	return conversations, err
}
