package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const (
	defaultListSize = 20
	reminderWindow  = time.Hour
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func (s *Service) List(ctx context.Context, userID string, limit int, unreadOnly bool) ([]Notification, error) {
	if limit <= 0 {
		limit = defaultListSize
	}
	return s.repo.List(ctx, userID, limit, unreadOnly)
}

// MarkRead is idempotent: an already-read notification is returned
// unchanged, its original read_at preserved.
func (s *Service) MarkRead(ctx context.Context, userID, notificationID string) (*Notification, error) {
	existing, err := s.repo.Get(ctx, userID, notificationID)
	if err != nil {
		return nil, err
	}
	if existing.ReadAt != nil {
		return existing, nil
	}

	at := s.now().UTC()
	if err := s.repo.SetRead(ctx, userID, notificationID, at); err != nil {
		return nil, err
	}
	existing.ReadAt = &at
	return existing, nil
}

func (s *Service) MarkAllRead(ctx context.Context, userID string) error {
	return s.repo.MarkAllRead(ctx, userID, s.now().UTC())
}

func (s *Service) Delete(ctx context.Context, userID, notificationID string) error {
	deleted, err := s.repo.Delete(ctx, userID, notificationID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *Service) UnreadCount(ctx context.Context, userID string) (int64, error) {
	return s.repo.UnreadCount(ctx, userID)
}

// MessageReceived implements messaging.Notifier.
func (s *Service) MessageReceived(ctx context.Context, recipientID, senderName string) error {
	content := "You received a new message"
	if senderName != "" {
		content = fmt.Sprintf("You received a new message from %s", senderName)
	}
	return s.repo.Create(ctx, &Notification{
		ID:      uuid.NewString(),
		UserID:  recipientID,
		Type:    TypeMessage,
		Title:   "New message",
		Content: content,
	})
}

// MedicationReminderSweep creates one reminder per active medication dose
// falling within the next hour after now, skipping medications that already
// got a reminder today. It is invoked by an external periodic trigger; there
// is no in-process scheduler.
func (s *Service) MedicationReminderSweep(ctx context.Context, now time.Time) ([]Reminder, error) {
	schedules, err := s.repo.ListActiveMedicationSchedules(ctx)
	if err != nil {
		return nil, err
	}

	windowEnd := now.Add(reminderWindow)
	created := make([]Reminder, 0)

	for _, schedule := range schedules {
		for _, timeStr := range schedule.TimeToTake {
			doseAt, err := atTimeOfDay(now, timeStr)
			if err != nil {
				continue
			}
			if !doseAt.After(now) || doseAt.After(windowEnd) {
				continue
			}

			exists, err := s.repo.HasMedicationReminder(ctx, schedule.UserID, schedule.Name, now)
			if err != nil {
				return created, err
			}
			if exists {
				continue
			}

			dosage := schedule.Dosage
			if dosage == "" {
				dosage = "dose unspecified"
			}
			reminder := Notification{
				ID:      uuid.NewString(),
				UserID:  schedule.UserID,
				Type:    TypeMedication,
				Title:   fmt.Sprintf("Medication reminder: %s", schedule.Name),
				Content: fmt.Sprintf("Time to take %s (%s) at %s", schedule.Name, dosage, timeStr),
			}
			if err := s.repo.Create(ctx, &reminder); err != nil {
				return created, err
			}
			created = append(created, Reminder{
				UserID:         schedule.UserID,
				MedicationName: schedule.Name,
				Time:           timeStr,
			})
		}
	}

	return created, nil
}

func atTimeOfDay(day time.Time, value string) (time.Time, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), parsed.Hour(), parsed.Minute(), 0, 0, day.Location()), nil
}
