package repository

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Tx runs fn in one transaction at READ COMMITTED. Every statement then sees
// rows committed before it, so a unit that waited on the membership lock
// reads the winner's check-in instead of a snapshot taken at its first read.
func (s *GormStore) Tx(ctx context.Context, fn func(r Repos) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newGormRepos(tx))
	}, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
}

func newGormRepos(db *gorm.DB) Repos {
	return Repos{
		Challenges: NewChallengeRepository(db),
		Members:    NewMembershipRepository(db),
		Habits:     NewHabitRepository(db),
		Checkins:   NewCheckinRepository(db),
		Hearts:     NewHeartsRepository(db),
		Backups:    NewBackupRepository(db),
	}
}
