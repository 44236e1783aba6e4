package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

type BackupType string

const (
	BackupTypeTotalsSnapshot   BackupType = "totals_snapshot"
	BackupTypePreRecalculation BackupType = "pre_recalculation"
)

type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSONB) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, j)
	case string:
		return json.Unmarshal([]byte(v), j)
	}
	return errors.New("type assertion to []byte failed")
}

// MemberBackup is a point-in-time copy of a membership's cached totals.
type MemberBackup struct {
	ID           uint64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ChallengeID  string     `gorm:"size:36;not null;index:idx_challenge_member_time" json:"challenge_id"`
	MembershipID string     `gorm:"size:36;not null;index:idx_challenge_member_time" json:"membership_id"`
	BackupType   BackupType `gorm:"size:30;not null" json:"backup_type"`
	BackupData   JSONB      `gorm:"type:text;not null" json:"backup_data"`
	CreatedAt    time.Time  `gorm:"autoCreateTime;index:idx_challenge_member_time" json:"created_at"`
}

func (MemberBackup) TableName() string {
	return "member_backups"
}

// AllModels lists every table for AutoMigrate.
func AllModels() []interface{} {
	return []interface{}{
		&Habit{},
		&Template{},
		&TemplateHabit{},
		&Challenge{},
		&Membership{},
		&HabitSelection{},
		&Checkin{},
		&HeartsTransaction{},
		&MemberBackup{},
	}
}
