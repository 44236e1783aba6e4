package service

import (
	"context"
	"testing"
	"time"

	"github.com/appsparrow/streakzilla/internal/config"
	"github.com/appsparrow/streakzilla/internal/models"
	"github.com/appsparrow/streakzilla/internal/repository"
	"github.com/appsparrow/streakzilla/internal/streak"

	"github.com/stretchr/testify/require"
)

var challengeStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func testTemplates() []config.TemplateConfig {
	return []config.TemplateConfig{{
		Key:  "seventy-five",
		Name: "Seventy Five",
		Mode: "custom",
		Habits: []config.TemplateHabitSeed{
			{Title: "Water", Category: "core", Points: ptr(0.0), IsCore: ptr(true)},
			{Title: "Workout", Category: "core", Points: ptr(10.0), IsCore: ptr(true)},
			{Title: "Read", Category: "bonus", Points: ptr(10.0)},
			{Title: "Meditate", Category: "bonus", Points: ptr(15.0)},
			{Title: "Walk", Category: "bonus", Points: ptr(20.0)},
			{Title: "Marathon", Category: "bonus", Points: ptr(95.0)},
		},
	}}
}

type fixture struct {
	t          *testing.T
	ctx        context.Context
	store      *repository.MemoryStore
	clock      *streak.FakeClock
	engine     *Engine
	challenges *ChallengeService
	checkins   *CheckinService
	hearts     *HeartsService
	selection  *SelectionService
	recovery   *RecoveryService
	habits     map[string]string
	challenge  *models.Challenge
}

const admin = "user-admin"

// newFixture builds a challenge in mode starting 2024-01-01 and moves the
// clock to 09:00 on day 1.
func newFixture(t *testing.T, mode string) *fixture {
	t.Helper()
	ctx := context.Background()
	store := repository.NewMemoryStore()
	clock := streak.NewFakeClock(challengeStart.Add(9 * time.Hour))

	engine, err := NewEngine(config.EngineConfig{
		Timezone:         "UTC",
		FreezeWindowDays: 3,
		PhotoBonusPoints: 5,
		PointsPerHeart:   100,
		JoinCodeLength:   6,
		DefaultDuration:  75,
	}, clock)
	require.NoError(t, err)

	seeded, err := NewTemplateService(store).Seed(ctx, testTemplates())
	require.NoError(t, err)
	require.Len(t, seeded, 1)

	f := &fixture{
		t:          t,
		ctx:        ctx,
		store:      store,
		clock:      clock,
		engine:     engine,
		challenges: NewChallengeService(store, engine),
		checkins:   NewCheckinService(store, engine),
		hearts:     NewHeartsService(store, engine),
		selection:  NewSelectionService(store, engine),
		recovery:   NewRecoveryService(store, engine),
		habits:     make(map[string]string),
	}
	for _, m := range seeded[0].Habits {
		f.habits[m.Habit.Title] = m.HabitID
	}

	f.challenge, err = f.challenges.Create(ctx, CreateChallengeRequest{
		Name:        "January",
		Mode:        mode,
		TemplateKey: "seventy-five",
		StartDate:   challengeStart,
		CreatorID:   admin,
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) ids(titles ...string) []string {
	out := make([]string, 0, len(titles))
	for _, title := range titles {
		id, ok := f.habits[title]
		require.True(f.t, ok, "unknown habit %s", title)
		out = append(out, id)
	}
	return out
}

func (f *fixture) join(userID string) {
	f.t.Helper()
	_, err := f.challenges.Join(f.ctx, f.challenge.Code, userID)
	require.NoError(f.t, err)
}

func (f *fixture) selectHabits(userID string, titles ...string) {
	f.t.Helper()
	_, err := f.selection.SaveSelection(f.ctx, f.challenge.ID, userID, f.ids(titles...))
	require.NoError(f.t, err)
}

func (f *fixture) day() int {
	return f.engine.CurrentDay(f.challenge)
}

func (f *fixture) checkIn(userID string, titles ...string) *CheckinResult {
	f.t.Helper()
	res, err := f.checkins.CheckIn(f.ctx, CheckinRequest{
		ChallengeID: f.challenge.ID,
		UserID:      userID,
		DayNumber:   f.day(),
		HabitIDs:    f.ids(titles...),
	})
	require.NoError(f.t, err)
	return res
}

func (f *fixture) member(userID string) models.Membership {
	f.t.Helper()
	var m *models.Membership
	require.NoError(f.t, f.store.Tx(f.ctx, func(r repository.Repos) error {
		var err error
		m, err = r.Members.GetActive(f.ctx, f.challenge.ID, userID)
		return err
	}))
	require.NotNil(f.t, m)
	return *m
}

func (f *fixture) checkinLog(userID string) []models.Checkin {
	f.t.Helper()
	m := f.member(userID)
	var out []models.Checkin
	require.NoError(f.t, f.store.Tx(f.ctx, func(r repository.Repos) error {
		var err error
		out, err = r.Checkins.ListRange(f.ctx, m.ID, 1, 1000)
		return err
	}))
	return out
}

func (f *fixture) seed(userID string, amount int) {
	f.t.Helper()
	_, err := f.hearts.SeedHearts(f.ctx, SeedRequest{
		ChallengeID: f.challenge.ID,
		AdminUserID: admin,
		UserID:      userID,
		Amount:      amount,
	})
	require.NoError(f.t, err)
}
