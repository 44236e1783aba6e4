package repository

import (
	"context"
	"errors"

	"github.com/appsparrow/streakzilla/internal/models"

	"gorm.io/gorm"
)

type ChallengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) *ChallengeRepository {
	return &ChallengeRepository{db: db}
}

func (r *ChallengeRepository) Create(ctx context.Context, c *models.Challenge) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ChallengeRepository) Get(ctx context.Context, id string) (*models.Challenge, error) {
	var c models.Challenge
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &c, err
}

func (r *ChallengeRepository) GetByCode(ctx context.Context, code string) (*models.Challenge, error) {
	var c models.Challenge
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &c, err
}

func (r *ChallengeRepository) ListActive(ctx context.Context) ([]models.Challenge, error) {
	var challenges []models.Challenge
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("start_date ASC").
		Find(&challenges).Error
	return challenges, err
}

func (r *ChallengeRepository) Save(ctx context.Context, c *models.Challenge) error {
	return r.db.WithContext(ctx).Save(c).Error
}
