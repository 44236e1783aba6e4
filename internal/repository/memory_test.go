package repository

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/appsparrow/streakzilla/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestMemoryStore_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	boom := stderrors.New("boom")
	err := s.Tx(ctx, func(r Repos) error {
		require.NoError(t, r.Challenges.Create(ctx, &models.Challenge{ID: "c1", Code: "ABC123"}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	require.NoError(t, s.Tx(ctx, func(r Repos) error {
		c, err := r.Challenges.Get(ctx, "c1")
		assert.Nil(t, c)
		return err
	}))
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Tx(ctx, func(r Repos) error {
		return r.Checkins.Create(ctx, &models.Checkin{MembershipID: "m1", DayNumber: 1, CompletedHabitIDs: models.HabitIDs{"a"}})
	}))

	require.NoError(t, s.Tx(ctx, func(r Repos) error {
		c, err := r.Checkins.Get(ctx, "m1", 1)
		require.NoError(t, err)
		c.CompletedHabitIDs[0] = "mutated"
		c.PointsEarned = 50
		return nil
	}))

	require.NoError(t, s.Tx(ctx, func(r Repos) error {
		c, err := r.Checkins.Get(ctx, "m1", 1)
		require.NoError(t, err)
		assert.Equal(t, models.HabitIDs{"a"}, c.CompletedHabitIDs)
		assert.Equal(t, 0, c.PointsEarned)
		return nil
	}))
}

func TestMemoryStore_UniqueKeys(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	key := "k"

	err := s.Tx(ctx, func(r Repos) error {
		require.NoError(t, r.Hearts.Append(ctx, &models.HeartsTransaction{Type: models.HeartsAutoUse, Amount: 1, IdempotencyKey: &key}))
		return r.Hearts.Append(ctx, &models.HeartsTransaction{Type: models.HeartsAutoUse, Amount: 1, IdempotencyKey: &key})
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	err = s.Tx(ctx, func(r Repos) error {
		require.NoError(t, r.Checkins.Create(ctx, &models.Checkin{MembershipID: "m1", DayNumber: 1}))
		return r.Checkins.Create(ctx, &models.Checkin{MembershipID: "m1", DayNumber: 1})
	})
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	require.NoError(t, s.Tx(ctx, func(r Repos) error {
		exists, err := r.Hearts.ExistsByKey(ctx, key)
		assert.False(t, exists, "failed unit left nothing behind")
		return err
	}))
}

func TestMemoryStore_TemplatesAndSelection(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	core := true

	require.NoError(t, s.Tx(ctx, func(r Repos) error {
		h := &models.Habit{Title: "Water", Category: "core"}
		require.NoError(t, r.Habits.UpsertHabit(ctx, h))
		again := &models.Habit{Title: "Water", Description: "a gallon"}
		require.NoError(t, r.Habits.UpsertHabit(ctx, again))
		assert.Equal(t, h.ID, again.ID)

		t1 := &models.Template{Key: "hard", Name: "Hard", Mode: "75_hard", Habits: []models.TemplateHabit{{HabitID: h.ID, IsCore: &core}}}
		require.NoError(t, r.Habits.UpsertTemplate(ctx, t1))
		t2 := &models.Template{Key: "hard", Name: "Hard v2", Mode: "75_hard", Habits: []models.TemplateHabit{{HabitID: h.ID}}}
		require.NoError(t, r.Habits.UpsertTemplate(ctx, t2))
		assert.Equal(t, t1.ID, t2.ID)

		got, err := r.Habits.GetTemplateByKey(ctx, "hard")
		require.NoError(t, err)
		assert.Equal(t, "Hard v2", got.Name)
		require.Len(t, got.Habits, 1)
		assert.Nil(t, got.Habits[0].IsCore)
		assert.Equal(t, "a gallon", got.Habits[0].Habit.Description)

		require.NoError(t, r.Habits.ReplaceSelection(ctx, "m1", []string{"a", "b"}))
		require.NoError(t, r.Habits.ReplaceSelection(ctx, "m1", []string{"c"}))
		sel, err := r.Habits.Selection(ctx, "m1")
		require.NoError(t, err)
		assert.Equal(t, []string{"c"}, sel)
		return nil
	}))
}

func TestMemoryStore_MembershipLifecycle(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	joined := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.Tx(ctx, func(r Repos) error {
		m := &models.Membership{ChallengeID: "c1", UserID: "u1", Status: models.StatusActive, JoinedAt: joined}
		require.NoError(t, r.Members.Create(ctx, m))
		require.NoError(t, r.Members.Create(ctx, &models.Membership{ChallengeID: "c1", UserID: "u2", Status: models.StatusActive, JoinedAt: joined, TotalPoints: 40}))

		list, err := r.Members.ListActive(ctx, "c1")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "u2", list[0].UserID)

		require.NoError(t, r.Members.Remove(ctx, m, models.StatusLeft))
		active, err := r.Members.GetActive(ctx, "c1", "u1")
		require.NoError(t, err)
		assert.Nil(t, active)

		latest, err := r.Members.GetLatest(ctx, "c1", "u1")
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, models.StatusLeft, latest.Status)
		assert.NotNil(t, latest.LeftAt)
		return nil
	}))
}

func TestMemoryStore_Backups(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s.SetNow(func() time.Time { return now })

	require.NoError(t, s.Tx(ctx, func(r Repos) error {
		require.NoError(t, r.Backups.Create(ctx, &models.MemberBackup{MembershipID: "m1", CreatedAt: now.AddDate(0, 0, -40)}))
		require.NoError(t, r.Backups.Create(ctx, &models.MemberBackup{MembershipID: "m1"}))
		require.NoError(t, r.Backups.Create(ctx, &models.MemberBackup{MembershipID: "m1"}))

		latest, err := r.Backups.ListForMember(ctx, "m1", 1)
		require.NoError(t, err)
		require.Len(t, latest, 1)
		assert.Equal(t, uint64(3), latest[0].ID)

		removed, err := r.Backups.DeleteOlderThan(ctx, now.AddDate(0, 0, -30))
		require.NoError(t, err)
		assert.EqualValues(t, 1, removed)
		return nil
	}))
}

func TestMemoryStore_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := NewMemoryStore().Tx(ctx, func(Repos) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
