package repository

import (
	"context"
	"errors"

	"github.com/appsparrow/streakzilla/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HabitRepository covers the habit catalogue, templates and member selections.
type HabitRepository struct {
	db *gorm.DB
}

func NewHabitRepository(db *gorm.DB) *HabitRepository {
	return &HabitRepository{db: db}
}

func (r *HabitRepository) GetTemplate(ctx context.Context, id string) (*models.Template, error) {
	var t models.Template
	err := r.db.WithContext(ctx).
		Preload("Habits.Habit").
		Where("id = ?", id).
		First(&t).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &t, err
}

func (r *HabitRepository) GetTemplateByKey(ctx context.Context, key string) (*models.Template, error) {
	var t models.Template
	err := r.db.WithContext(ctx).
		Preload("Habits.Habit").
		Where(&models.Template{Key: key}).
		First(&t).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &t, err
}

// UpsertHabit matches on title. An existing habit keeps its id.
func (r *HabitRepository) UpsertHabit(ctx context.Context, h *models.Habit) error {
	var existing models.Habit
	err := r.db.WithContext(ctx).Where("title = ?", h.Title).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return r.db.WithContext(ctx).Create(h).Error
	}
	if err != nil {
		return err
	}
	h.ID = existing.ID
	h.CreatedAt = existing.CreatedAt
	return r.db.WithContext(ctx).Save(h).Error
}

// UpsertTemplate matches on key and upserts each mapping on (template, habit).
// Mapping HabitIDs must already be set.
func (r *HabitRepository) UpsertTemplate(ctx context.Context, t *models.Template) error {
	mappings := t.Habits
	t.Habits = nil

	var existing models.Template
	err := r.db.WithContext(ctx).Where(&models.Template{Key: t.Key}).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		t.ID = existing.ID
		t.CreatedAt = existing.CreatedAt
		if err := r.db.WithContext(ctx).Save(t).Error; err != nil {
			return err
		}
	}

	for i := range mappings {
		m := &mappings[i]
		m.TemplateID = t.ID
		err := r.db.WithContext(ctx).
			Omit("Habit").
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "template_id"}, {Name: "habit_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"is_core", "points_override", "sort_order"}),
			}).
			Create(m).Error
		if err != nil {
			return err
		}
	}
	t.Habits = mappings
	return nil
}

func (r *HabitRepository) Selection(ctx context.Context, membershipID string) ([]string, error) {
	var ids []string
	err := r.db.WithContext(ctx).
		Model(&models.HabitSelection{}).
		Where("membership_id = ?", membershipID).
		Order("id ASC").
		Pluck("habit_id", &ids).Error
	return ids, err
}

func (r *HabitRepository) ReplaceSelection(ctx context.Context, membershipID string, habitIDs []string) error {
	err := r.db.WithContext(ctx).
		Where("membership_id = ?", membershipID).
		Delete(&models.HabitSelection{}).Error
	if err != nil {
		return err
	}
	if len(habitIDs) == 0 {
		return nil
	}

	rows := make([]models.HabitSelection, 0, len(habitIDs))
	for _, id := range habitIDs {
		rows = append(rows, models.HabitSelection{MembershipID: membershipID, HabitID: id})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}
