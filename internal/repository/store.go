package repository

import (
	"context"
	"time"

	"github.com/appsparrow/streakzilla/internal/models"
)

// Store runs fn as one atomic unit. Everything fn writes through the Repos
// it receives commits together or not at all; a non-nil error from fn rolls
// the unit back.
type Store interface {
	Tx(ctx context.Context, fn func(r Repos) error) error
}

// Repos is the read/write contract of the streak engine, scoped to one unit.
type Repos struct {
	Challenges Challenges
	Members    Members
	Habits     Habits
	Checkins   Checkins
	Hearts     Hearts
	Backups    Backups
}

// Lookups return (nil, nil) when the row does not exist.

type Challenges interface {
	Create(ctx context.Context, c *models.Challenge) error
	Get(ctx context.Context, id string) (*models.Challenge, error)
	GetByCode(ctx context.Context, code string) (*models.Challenge, error)
	ListActive(ctx context.Context) ([]models.Challenge, error)
	Save(ctx context.Context, c *models.Challenge) error
}

type Members interface {
	Create(ctx context.Context, m *models.Membership) error
	// GetActive returns the active membership of a user and locks it for the
	// rest of the unit.
	GetActive(ctx context.Context, challengeID, userID string) (*models.Membership, error)
	// GetLatest returns the most recent membership in any status, left ones included.
	GetLatest(ctx context.Context, challengeID, userID string) (*models.Membership, error)
	ListActive(ctx context.Context, challengeID string) ([]models.Membership, error)
	Save(ctx context.Context, m *models.Membership) error
	// Remove moves the membership to a terminal status and soft-deletes it.
	Remove(ctx context.Context, m *models.Membership, status models.MemberStatus) error
}

type Habits interface {
	GetTemplate(ctx context.Context, id string) (*models.Template, error)
	GetTemplateByKey(ctx context.Context, key string) (*models.Template, error)
	UpsertHabit(ctx context.Context, h *models.Habit) error
	UpsertTemplate(ctx context.Context, t *models.Template) error
	Selection(ctx context.Context, membershipID string) ([]string, error)
	ReplaceSelection(ctx context.Context, membershipID string, habitIDs []string) error
}

type Checkins interface {
	Get(ctx context.Context, membershipID string, day int) (*models.Checkin, error)
	// ListRange returns check-ins with fromDay <= day_number <= toDay ordered by day.
	ListRange(ctx context.Context, membershipID string, fromDay, toDay int) ([]models.Checkin, error)
	Create(ctx context.Context, c *models.Checkin) error
	Save(ctx context.Context, c *models.Checkin) error
}

type Hearts interface {
	Append(ctx context.Context, tx *models.HeartsTransaction) error
	// ListForMember returns every transaction the member sent or received, oldest first.
	ListForMember(ctx context.Context, challengeID, membershipID string) ([]models.HeartsTransaction, error)
	ExistsByKey(ctx context.Context, key string) (bool, error)
}

type Backups interface {
	Create(ctx context.Context, b *models.MemberBackup) error
	ListForMember(ctx context.Context, membershipID string, limit int) ([]models.MemberBackup, error)
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
}
