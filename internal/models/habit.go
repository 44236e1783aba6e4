package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Habit is immutable once a check-in references it; template-scoped
// changes go through TemplateHabit.PointsOverride.
type Habit struct {
	ID          string    `gorm:"primaryKey;size:36" json:"id"`
	Title       string    `gorm:"size:200;not null;uniqueIndex" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:50;index" json:"category"`
	Points      *float64  `gorm:"type:decimal(10,2)" json:"points"`
	TemplateSet string    `gorm:"size:100;index" json:"template_set"`
	IsCore      *bool     `json:"is_core,omitempty"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (Habit) TableName() string {
	return "habits"
}

func (h *Habit) BeforeCreate(tx *gorm.DB) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	return nil
}
