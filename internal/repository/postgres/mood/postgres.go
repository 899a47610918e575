package mood

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	domain "therapy-support-go/internal/domain/mood"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, entry *domain.Entry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, entryID string) (*domain.Entry, error) {
	var entry domain.Entry
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", entryID, userID).
		First(&entry).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, err
	}
	return &entry, nil
}

func (r *PostgresRepository) Update(ctx context.Context, entry *domain.Entry) error {
	return r.db.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("id = ? AND user_id = ?", entry.ID, entry.UserID).
		Updates(map[string]interface{}{
			"mood_rating": entry.MoodRating,
			"notes":       entry.Notes,
			"entry_date":  entry.EntryDate,
		}).Error
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, entryID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Delete(&domain.Entry{}, "id = ? AND user_id = ?", entryID, userID)
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) List(ctx context.Context, userID string, filter domain.ListFilter) ([]domain.Entry, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)
	if filter.From != nil && filter.To != nil {
		query = query.Where("entry_date BETWEEN ? AND ?", filter.From, filter.To)
	}
	query = query.Order("entry_date DESC, created_at DESC")
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var entries []domain.Entry
	err := query.Find(&entries).Error
	return entries, err
}

func (r *PostgresRepository) Count(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *PostgresRepository) Average(ctx context.Context, userID string, since *time.Time) (*float64, error) {
	query := "SELECT AVG(mood_rating) FROM mood_entries WHERE user_id = ?"
	args := []interface{}{userID}
	if since != nil {
		query += " AND entry_date >= ?"
		args = append(args, since)
	}

	var average *float64
	err := r.db.WithContext(ctx).Raw(query, args...).Scan(&average).Error
	return average, err
}

func (r *PostgresRepository) ListRecent(ctx context.Context, userID string, limit int) ([]domain.Entry, error) {
	var entries []domain.Entry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("entry_date DESC, created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
