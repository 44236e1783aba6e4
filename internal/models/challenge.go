package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Challenge is a time-boxed group streak. StartDate and DurationDays never
// change after creation.
type Challenge struct {
	ID                    string    `gorm:"primaryKey;size:36" json:"id"`
	Name                  string    `gorm:"size:200;not null" json:"name"`
	Code                  string    `gorm:"size:16;not null;uniqueIndex" json:"code"`
	TemplateID            string    `gorm:"size:36;index" json:"template_id"`
	Mode                  string    `gorm:"size:50;not null" json:"mode"`
	StartDate             time.Time `gorm:"type:date;not null" json:"start_date"`
	DurationDays          int       `gorm:"not null;default:75" json:"duration_days"`
	IsActive              bool      `gorm:"not null;default:true;index" json:"is_active"`
	PointsToHeartsEnabled bool      `gorm:"not null;default:true" json:"points_to_hearts_enabled"`
	HeartsPer100Points    int       `gorm:"not null;default:1" json:"hearts_per_100_points"`
	HeartSharingEnabled   bool      `gorm:"not null;default:true" json:"heart_sharing_enabled"`
	CreatedBy             string    `gorm:"size:36;not null" json:"created_by"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Challenge) TableName() string {
	return "challenges"
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// SharingAllowed reports whether gifts are possible; sharing depends on the hearts system.
func (c *Challenge) SharingAllowed() bool {
	return c.HeartSharingEnabled && c.PointsToHeartsEnabled
}
