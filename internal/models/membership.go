package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MemberRole string

const (
	RoleAdmin  MemberRole = "admin"
	RoleMember MemberRole = "member"
)

type MemberStatus string

const (
	StatusActive     MemberStatus = "active"
	StatusLeft       MemberStatus = "left"
	StatusEliminated MemberStatus = "eliminated"
)

// Membership holds the cached totals of one user in one challenge. The point
// and heart columns are folds of the check-in and hearts logs and are only
// written by the service layer's rebuild path.
type Membership struct {
	ID              string         `gorm:"primaryKey;size:36" json:"id"`
	ChallengeID     string         `gorm:"size:36;not null;index:idx_challenge_user" json:"challenge_id"`
	UserID          string         `gorm:"size:36;not null;index:idx_challenge_user" json:"user_id"`
	Role            MemberRole     `gorm:"size:20;not null;default:'member'" json:"role"`
	Status          MemberStatus   `gorm:"size:20;not null;default:'active';index" json:"status"`
	JoinedAt        time.Time      `gorm:"not null" json:"joined_at"`
	LeftAt          *time.Time     `json:"left_at,omitempty"`
	LivesRemaining  int            `gorm:"not null;default:1" json:"lives_remaining"`
	TotalPoints     int            `gorm:"not null;default:0" json:"total_points"`
	BonusPoints     int            `gorm:"not null;default:0" json:"bonus_points"`
	CurrentStreak   int            `gorm:"not null;default:0" json:"current_streak"`
	HeartsEarned    int            `gorm:"not null;default:0" json:"hearts_earned"`
	HeartsUsed      int            `gorm:"not null;default:0" json:"hearts_used"`
	HeartsAvailable int            `gorm:"not null;default:0" json:"hearts_available"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Membership) TableName() string {
	return "memberships"
}

func (m *Membership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

func (m *Membership) IsAdmin() bool {
	return m.Role == RoleAdmin
}

// HabitSelection is one habit chosen by a member from the template pool.
type HabitSelection struct {
	ID           uint64    `gorm:"primaryKey;autoIncrement" json:"id"`
	MembershipID string    `gorm:"size:36;not null;uniqueIndex:uk_member_habit" json:"membership_id"`
	HabitID      string    `gorm:"size:36;not null;uniqueIndex:uk_member_habit" json:"habit_id"`
	CreatedAt    time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (HabitSelection) TableName() string {
	return "habit_selections"
}
