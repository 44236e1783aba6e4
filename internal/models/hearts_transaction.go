package models

import (
	"time"
)

type HeartsTransactionType string

const (
	HeartsAutoUse       HeartsTransactionType = "auto_use"
	HeartsGift          HeartsTransactionType = "gift"
	HeartsMigrationSeed HeartsTransactionType = "migration_seed"
)

// HeartsTransaction is an append-only ledger entry. Balances are folds of
// these rows; auto_use rows carry an idempotency key so a protected day can
// never be paid for twice.
type HeartsTransaction struct {
	ID             uint64                `gorm:"primaryKey;autoIncrement" json:"id"`
	ChallengeID    string                `gorm:"size:36;not null;index:idx_challenge_from;index:idx_challenge_to" json:"challenge_id"`
	DayNumber      int                   `gorm:"not null" json:"day_number"`
	FromMemberID   string                `gorm:"size:36;not null;index:idx_challenge_from" json:"from_member_id"`
	ToMemberID     string                `gorm:"size:36;not null;index:idx_challenge_to" json:"to_member_id"`
	Amount         int                   `gorm:"not null" json:"amount"`
	Type           HeartsTransactionType `gorm:"size:20;not null" json:"type"`
	Note           string                `gorm:"size:500" json:"note,omitempty"`
	IdempotencyKey *string               `gorm:"size:64;uniqueIndex" json:"-"`
	CreatedAt      time.Time             `gorm:"autoCreateTime" json:"created_at"`
}

func (HeartsTransaction) TableName() string {
	return "hearts_transactions"
}
