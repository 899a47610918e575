package notification

import (
	"context"
	"time"
)

type Repository interface {
	Create(ctx context.Context, notification *Notification) error
	Get(ctx context.Context, userID, notificationID string) (*Notification, error)
	// SetRead stamps read_at only where it is still null.
	SetRead(ctx context.Context, userID, notificationID string, at time.Time) error
	MarkAllRead(ctx context.Context, userID string, at time.Time) error
	Delete(ctx context.Context, userID, notificationID string) (bool, error)
	List(ctx context.Context, userID string, limit int, unreadOnly bool) ([]Notification, error)
	UnreadCount(ctx context.Context, userID string) (int64, error)
	// HasMedicationReminder reports whether a medication-type notification
	// whose title contains name was already created on day.
	HasMedicationReminder(ctx context.Context, userID, name string, day time.Time) (bool, error)
	// ListActiveMedicationSchedules returns every active medication with a
	// non-empty schedule, across all users. Backs the reminder sweep.
	ListActiveMedicationSchedules(ctx context.Context) ([]MedicationSchedule, error)
}
