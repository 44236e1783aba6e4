package repository

import (
	"context"

	"github.com/appsparrow/streakzilla/internal/models"

	"gorm.io/gorm"
)

type HeartsRepository struct {
	db *gorm.DB
}

func NewHeartsRepository(db *gorm.DB) *HeartsRepository {
	return &HeartsRepository{db: db}
}

func (r *HeartsRepository) Append(ctx context.Context, tx *models.HeartsTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *HeartsRepository) ListForMember(ctx context.Context, challengeID, membershipID string) ([]models.HeartsTransaction, error) {
	var txs []models.HeartsTransaction
	err := r.db.WithContext(ctx).
		Where("challenge_id = ? AND (from_member_id = ? OR to_member_id = ?)", challengeID, membershipID, membershipID).
		Order("id ASC").
		Find(&txs).Error
	return txs, err
}

func (r *HeartsRepository) ExistsByKey(ctx context.Context, key string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.HeartsTransaction{}).
		Where("idempotency_key = ?", key).
		Count(&count).Error
	return count > 0, err
}
