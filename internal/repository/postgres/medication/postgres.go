package medication

import (
	"context"
	"errors"

	"gorm.io/gorm"
	domain "therapy-support-go/internal/domain/medication"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, med *domain.Medication) error {
	return r.db.WithContext(ctx).Create(med).Error
}

func (r *PostgresRepository) GetByID(ctx context.Context, userID, medicationID string) (*domain.Medication, error) {
	var med domain.Medication
	if err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", medicationID, userID).
		First(&med).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrMedicationNotFound
		}
		return nil, err
	}
	return &med, nil
}

func (r *PostgresRepository) Update(ctx context.Context, med *domain.Medication) error {
	return r.db.WithContext(ctx).
		Model(&domain.Medication{}).
		Where("id = ? AND user_id = ?", med.ID, med.UserID).
		Updates(map[string]interface{}{
			"name":         med.Name,
			"dosage":       med.Dosage,
			"frequency":    med.Frequency,
			"time_to_take": med.TimeToTake,
			"notes":        med.Notes,
			"active":       med.Active,
		}).Error
}

func (r *PostgresRepository) SoftDelete(ctx context.Context, userID, medicationID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Medication{}).
		Where("id = ? AND user_id = ?", medicationID, userID).
		Update("active", false)
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) List(ctx context.Context, userID string, active bool) ([]domain.Medication, error) {
	var meds []domain.Medication
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND active = ?", userID, active).
		Order("created_at DESC").
		Find(&meds).Error
	return meds, err
}
