package messaging

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/google/uuid"
	"therapy-support-go/internal/domain/access"
	"therapy-support-go/internal/domain/user"
	"therapy-support-go/pkg/logger"
)

const (
	maxContentLength = 2000
	defaultPageSize  = 50
)

// RelationshipChecker reports whether a therapist is assigned to a patient.
type RelationshipChecker interface {
	Exists(ctx context.Context, therapistID, patientID string) (bool, error)
}

// Notifier receives the fan-out side effect of a successful send.
type Notifier interface {
	MessageReceived(ctx context.Context, recipientID, senderName string) error
}

type Service struct {
	repo          Repository
	users         user.Repository
	relationships RelationshipChecker
	notifier      Notifier
	log           logger.Logger
}

func NewService(repo Repository, users user.Repository, relationships RelationshipChecker, notifier Notifier, log logger.Logger) *Service {
	return &Service{
		repo:          repo,
		users:         users,
		relationships: relationships,
		notifier:      notifier,
		log:           log,
	}
}

// Send creates a message between two related users and fans out a
// notification to the recipient. The notification is fire-and-forget: its
// failure never rolls back the message.
func (s *Service) Send(ctx context.Context, sender access.Identity, recipientID, content string) (*Message, error) {
	length := utf8.RuneCountInString(content)
	if length < 1 || length > maxContentLength {
		return nil, fmt.Errorf("%w: content must be between 1 and %d characters", ErrInvalidInput, maxContentLength)
	}

	recipient, err := s.users.GetByID(ctx, recipientID)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			return nil, ErrRecipientNotFound
		}
		return nil, err
	}

	if err := s.requireRelation(ctx, sender, recipient); err != nil {
		return nil, err
	}

	message := Message{
		ID:          uuid.NewString(),
		SenderID:    sender.ID,
		RecipientID: recipientID,
		Content:     content,
	}
	if err := s.repo.Create(ctx, &message); err != nil {
		return nil, err
	}

	senderAccount, err := s.users.GetByID(ctx, sender.ID)
	senderName := ""
	if err == nil {
		senderName = senderAccount.FullName()
	}
	if err := s.notifier.MessageReceived(ctx, recipientID, senderName); err != nil {
		s.log.BusinessError("messaging: notification fan-out failed", err,
			"message_id", message.ID, "recipient_id", recipientID)
	}

	return &message, nil
}

// ListMessagesWith pages through the conversation with otherUserID,
// returning messages oldest→newest for display over a newest-first scan.
// Viewing marks everything the counterpart sent to the caller as read.
func (s *Service) ListMessagesWith(ctx context.Context, caller access.Identity, otherUserID string, filter ListFilter) ([]MessageView, error) {
	related, err := s.relatedEitherWay(ctx, caller.ID, otherUserID)
	if err != nil {
		return nil, err
	}
	if !related {
		return nil, access.ErrNoRelationship
	}

	if filter.Limit <= 0 {
		filter.Limit = defaultPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	messages, err := s.repo.ListBetween(ctx, caller.ID, otherUserID, filter.Limit, filter.Offset)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.MarkRead(ctx, caller.ID, otherUserID); err != nil {
		return nil, err
	}

	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

// MarkRead flips all unread messages from otherUserID to read. Re-marking
// already-read messages is a no-op.
func (s *Service) MarkRead(ctx context.Context, userID, otherUserID string) (int64, error) {
	return s.repo.MarkRead(ctx, userID, otherUserID)
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// ListConversations returns one row per counterpart, most recently active
// first, each with the latest message and a per-counterpart unread count.
func (s *Service) ListConversations(ctx context.Context, userID string) ([]Conversation, error) {
	return s.repo.Conversations(ctx, userID)
}

// requireRelation checks the qualifying relationship for the send
// direction: patient→therapist needs Relationship(recipient, sender),
// therapist→patient needs Relationship(sender, recipient). Any other role
// pairing has no qualifying relationship.
func (s *Service) requireRelation(ctx context.Context, sender access.Identity, recipient *user.User) error {
	var related bool
	var err error

	switch {
	case sender.Role == user.RolePatient && recipient.Role == user.RoleTherapist:
		related, err = s.relationships.Exists(ctx, recipient.ID, sender.ID)
	case sender.Role == user.RoleTherapist && recipient.Role == user.RolePatient:
		related, err = s.relationships.Exists(ctx, sender.ID, recipient.ID)
	}
	if err != nil {
		return err
	}
	if !related {
		return access.ErrNoRelationship
	}
	return nil
}

func (s *Service) relatedEitherWay(ctx context.Context, userID, otherUserID string) (bool, error) {
	related, err := s.relationships.Exists(ctx, userID, otherUserID)
	if err != nil || related {
		return related, err
	}
	return s.relationships.Exists(ctx, otherUserID, userID)
}
