package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HabitIDs is stored as a JSON array.
type HabitIDs []string

func (h HabitIDs) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(h))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (h *HabitIDs) Scan(value interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	case nil:
		*h = HabitIDs{}
		return nil
	default:
		return errors.New("type assertion to []byte failed")
	}
	return json.Unmarshal(bytes, h)
}

func (h HabitIDs) Contains(id string) bool {
	for _, v := range h {
		if v == id {
			return true
		}
	}
	return false
}

// Checkin is the record of one membership's day. It only ever grows:
// later submissions append habits and raise PointsEarned.
type Checkin struct {
	ID                string    `gorm:"primaryKey;size:36" json:"id"`
	MembershipID      string    `gorm:"size:36;not null;uniqueIndex:uk_member_day" json:"membership_id"`
	ChallengeID       string    `gorm:"size:36;not null;index" json:"challenge_id"`
	UserID            string    `gorm:"size:36;not null" json:"user_id"`
	DayNumber         int       `gorm:"not null;uniqueIndex:uk_member_day" json:"day_number"`
	CompletedHabitIDs HabitIDs  `gorm:"type:text;not null" json:"completed_habit_ids"`
	Note              string    `gorm:"type:text" json:"note,omitempty"`
	PhotoRef          string    `gorm:"size:500" json:"photo_ref,omitempty"`
	PhotoBonusAwarded bool      `gorm:"not null;default:false" json:"photo_bonus_awarded"`
	PointsEarned      int       `gorm:"not null;default:0" json:"points_earned"`
	BonusPoints       int       `gorm:"not null;default:0" json:"bonus_points"`
	CreatedAt         time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Checkin) TableName() string {
	return "checkins"
}

func (c *Checkin) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}
