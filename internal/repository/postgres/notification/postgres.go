package notification

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	domain "therapy-support-go/internal/domain/notification"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, notification *domain.Notification) error {
	return r.db.WithContext(ctx).Create(notification).Error
}

func (r *PostgresRepository) Get(ctx context.Context, userID, notificationID string) (*domain.Notification, error) {
	var notification domain.Notification
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", notificationID, userID).
		First(&notification).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotificationNotFound
		}
		return nil, err
	}
	return &notification, nil
}

func (r *PostgresRepository) SetRead(ctx context.Context, userID, notificationID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("id = ? AND user_id = ? AND read_at IS NULL", notificationID, userID).
		Update("read_at", at).Error
}

func (r *PostgresRepository) MarkAllRead(ctx context.Context, userID string, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Update("read_at", at).Error
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, notificationID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Delete(&domain.Notification{}, "id = ? AND user_id = ?", notificationID, userID)
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) List(ctx context.Context, userID string, limit int, unreadOnly bool) ([]domain.Notification, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if unreadOnly {
		query = query.Where("read_at IS NULL")
	}

	var notifications []domain.Notification
	err := query.Order("created_at DESC").Limit(limit).Find(&notifications).Error
	return notifications, err
}

func (r *PostgresRepository) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Count(&count).Error
	return count, err
}

func (r *PostgresRepository) HasMedicationReminder(ctx context.Context, userID, name string, day time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id = ? AND type = ? AND title LIKE ? AND created_at::date = ?::date",
			userID, domain.TypeMedication, "%"+name+"%", day).
		Count(&count).Error
	return count > 0, err
}

func (r *PostgresRepository) ListActiveMedicationSchedules(ctx context.Context) ([]domain.MedicationSchedule, error) {
	rows, err := r.db.WithContext(ctx).
		Raw(`SELECT m.user_id, m.name, m.dosage, m.time_to_take
			FROM medications m
			JOIN users u ON u.id = m.user_id
			WHERE m.active = true
			  AND m.time_to_take IS NOT NULL
			  AND array_length(m.time_to_take, 1) > 0`).
		Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []domain.MedicationSchedule
	for rows.Next() {
		var schedule domain.MedicationSchedule
		var times pq.StringArray
		if err := rows.Scan(&schedule.UserID, &schedule.Name, &schedule.Dosage, &times); err != nil {
			return nil, err
		}
		schedule.TimeToTake = times
		schedules = append(schedules, schedule)
	}
	return schedules, rows.Err()
}
