package repository

import (
	"context"
	"errors"

	"github.com/appsparrow/streakzilla/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CheckinRepository struct {
	db *gorm.DB
}

func NewCheckinRepository(db *gorm.DB) *CheckinRepository {
	return &CheckinRepository{db: db}
}

// Get locks the day's row when it exists; the caller merges into it.
func (r *CheckinRepository) Get(ctx context.Context, membershipID string, day int) (*models.Checkin, error) {
	var c models.Checkin
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("membership_id = ? AND day_number = ?", membershipID, day).
		First(&c).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &c, err
}

func (r *CheckinRepository) ListRange(ctx context.Context, membershipID string, fromDay, toDay int) ([]models.Checkin, error) {
	var checkins []models.Checkin
	err := r.db.WithContext(ctx).
		Where("membership_id = ? AND day_number >= ? AND day_number <= ?", membershipID, fromDay, toDay).
		Order("day_number ASC").
		Find(&checkins).Error
	return checkins, err
}

func (r *CheckinRepository) Create(ctx context.Context, c *models.Checkin) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *CheckinRepository) Save(ctx context.Context, c *models.Checkin) error {
	return r.db.WithContext(ctx).Save(c).Error
}
