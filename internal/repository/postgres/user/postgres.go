package user

import (
	"context"
	"errors"

	"gorm.io/gorm"
	domain "therapy-support-go/internal/domain/user"
)

type PostgresRepository struct {
	db *gorm.DB
}

func NewPostgres(db *gorm.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, account *domain.User) error {
	err := r.db.WithContext(ctx).Create(account).Error
	if err != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrEmailTaken
	}
	return err
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var account domain.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var account domain.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &account, nil
}

func (r *PostgresRepository) ListByRole(ctx context.Context, role string) ([]domain.User, error) {
	var accounts []domain.User
	err := r.db.WithContext(ctx).
		Where("role = ?", role).
		Order("first_name asc, last_name asc").
		Find(&accounts).Error
	return accounts, err
}
