package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Template struct {
	ID        string          `gorm:"primaryKey;size:36" json:"id"`
	Key       string          `gorm:"size:100;not null;uniqueIndex" json:"key"`
	Name      string          `gorm:"size:200;not null" json:"name"`
	Mode      string          `gorm:"size:50;not null" json:"mode"`
	Habits    []TemplateHabit `gorm:"foreignKey:TemplateID" json:"habits"`
	CreatedAt time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Template) TableName() string {
	return "templates"
}

func (t *Template) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// TemplateHabit places a habit in a template. A nil IsCore means the mapping
// carries no classification and the legacy habit fields decide.
type TemplateHabit struct {
	ID             uint64   `gorm:"primaryKey;autoIncrement" json:"id"`
	TemplateID     string   `gorm:"size:36;not null;uniqueIndex:uk_template_habit" json:"template_id"`
	HabitID        string   `gorm:"size:36;not null;uniqueIndex:uk_template_habit" json:"habit_id"`
	IsCore         *bool    `json:"is_core"`
	PointsOverride *float64 `gorm:"type:decimal(10,2)" json:"points_override"`
	SortOrder      *int     `json:"sort_order"`
	Habit          Habit    `gorm:"foreignKey:HabitID" json:"habit"`
}

func (TemplateHabit) TableName() string {
	return "template_habits"
}
