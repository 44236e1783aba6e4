package repository

import (
	"context"
	"errors"
	"time"

	"github.com/appsparrow/streakzilla/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MembershipRepository struct {
	db *gorm.DB
}

func NewMembershipRepository(db *gorm.DB) *MembershipRepository {
	return &MembershipRepository{db: db}
}

func (r *MembershipRepository) Create(ctx context.Context, m *models.Membership) error {
	return r.db.WithContext(ctx).Create(m).Error
}

// GetActive takes a row lock so concurrent check-ins for one member serialize.
func (r *MembershipRepository) GetActive(ctx context.Context, challengeID, userID string) (*models.Membership, error) {
	var m models.Membership
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("challenge_id = ? AND user_id = ? AND status = ?", challengeID, userID, models.StatusActive).
		First(&m).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &m, err
}

func (r *MembershipRepository) GetLatest(ctx context.Context, challengeID, userID string) (*models.Membership, error) {
	var m models.Membership
	err := r.db.WithContext(ctx).
		Unscoped().
		Where("challenge_id = ? AND user_id = ?", challengeID, userID).
		Order("joined_at DESC").
		First(&m).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &m, err
}

func (r *MembershipRepository) ListActive(ctx context.Context, challengeID string) ([]models.Membership, error) {
	var members []models.Membership
	err := r.db.WithContext(ctx).
		Where("challenge_id = ? AND status = ?", challengeID, models.StatusActive).
		Order("total_points DESC, joined_at ASC").
		Find(&members).Error
	return members, err
}

func (r *MembershipRepository) Save(ctx context.Context, m *models.Membership) error {
	return r.db.WithContext(ctx).Save(m).Error
}

func (r *MembershipRepository) Remove(ctx context.Context, m *models.Membership, status models.MemberStatus) error {
	now := time.Now().UTC()
	m.Status = status
	m.LeftAt = &now
	if err := r.db.WithContext(ctx).Save(m).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(m).Error
}
