package relationship

import (
	"context"
	"time"

	"gorm.io/gorm"
	domain "therapy-support-go/internal/domain/relationship"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, relation *domain.Relation) error {
	return r.db.WithContext(ctx).Create(relation).Error
}

func (r *PostgresRepository) Exists(ctx context.Context, therapistID, patientID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Relation{}).
		Where("therapist_id = ? AND patient_id = ?", therapistID, patientID).
		Count(&count).Error
	return count > 0, err
}

func (r *PostgresRepository) Delete(ctx context.Context, therapistID, patientID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Delete(&domain.Relation{}, "therapist_id = ? AND patient_id = ?", therapistID, patientID)
	return result.RowsAffected > 0, result.Error
}

func (r *PostgresRepository) ListPatients(ctx context.Context, therapistID string) ([]domain.AssignedPatient, error) {
	var patients []domain.AssignedPatient
	err := r.db.WithContext(ctx).
		Raw(`SELECT u.id, u.email, u.first_name, u.last_name, u.created_at, tp.created_at AS assigned_at
			FROM users u
			JOIN therapist_patients tp ON tp.patient_id = u.id
			WHERE tp.therapist_id = ? AND u.role = 'patient'
			ORDER BY tp.created_at DESC`, therapistID).
		Scan(&patients).Error
	return patients, err
}

func (r *PostgresRepository) PatientStats(ctx context.Context, patientID string, recentSince time.Time) (domain.PatientStats, error) {
	var stats domain.PatientStats

	if err := r.db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM mood_entries WHERE user_id = ?", patientID).
		Scan(&stats.MoodEntriesCount).Error; err != nil {
		return domain.PatientStats{}, err
	}

	if err := r.db.WithContext(ctx).
		Raw("SELECT COUNT(*) FROM medications WHERE user_id = ? AND active = true", patientID).
		Scan(&stats.ActiveMedicationsCount).Error; err != nil {
		return domain.PatientStats{}, err
	}

	var last []domain.MoodSnapshot
	if err := r.db.WithContext(ctx).
		Raw("SELECT mood_rating, entry_date FROM mood_entries WHERE user_id = ? ORDER BY entry_date DESC, created_at DESC LIMIT 1", patientID).
		Scan(&last).Error; err != nil {
		return domain.PatientStats{}, err
	}
	if len(last) > 0 {
		stats.LastMoodEntry = &last[0]
	}

	if err := r.db.WithContext(ctx).
		Raw("SELECT mood_rating, entry_date FROM mood_entries WHERE user_id = ? AND entry_date >= ? ORDER BY entry_date DESC", patientID, recentSince).
		Scan(&stats.RecentMoodEntries).Error; err != nil {
		return domain.PatientStats{}, err
	}

	if len(stats.RecentMoodEntries) > 0 {
		sum := 0
		for _, snapshot := range stats.RecentMoodEntries {
			sum += snapshot.MoodRating
		}
		average := float64(sum) / float64(len(stats.RecentMoodEntries))
		stats.AverageMood = &average
	}

	return stats, nil
}
