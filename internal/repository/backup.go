package repository

import (
	"context"
	"time"

	"github.com/appsparrow/streakzilla/internal/models"

	"gorm.io/gorm"
)

type BackupRepository struct {
	db *gorm.DB
}

func NewBackupRepository(db *gorm.DB) *BackupRepository {
	return &BackupRepository{db: db}
}

func (r *BackupRepository) Create(ctx context.Context, b *models.MemberBackup) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *BackupRepository) ListForMember(ctx context.Context, membershipID string, limit int) ([]models.MemberBackup, error) {
	var backups []models.MemberBackup
	query := r.db.WithContext(ctx).
		Where("membership_id = ?", membershipID).
		Order("created_at DESC, id DESC")

	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Find(&backups).Error
	return backups, err
}

// DeleteOlderThan prunes backups created before the cutoff.
func (r *BackupRepository) DeleteOlderThan(ctx context.Context, before time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&models.MemberBackup{})
	return result.RowsAffected, result.Error
}
