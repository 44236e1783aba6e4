package service

import (
	"context"
	"time"

	"github.com/appsparrow/streakzilla/internal/config"
	"github.com/appsparrow/streakzilla/internal/models"
	"github.com/appsparrow/streakzilla/internal/repository"
	"github.com/appsparrow/streakzilla/internal/streak"
	"github.com/appsparrow/streakzilla/pkg/errors"
	"github.com/appsparrow/streakzilla/pkg/logger"
)

// Engine carries the rule tunables and the clock shared by every service.
type Engine struct {
	Clock            streak.Clock
	Location         *time.Location
	FreezeWindowDays int
	PhotoBonusPoints int
	PointsPerHeart   int
	JoinCodeLength   int
	DefaultDuration  int
}

func NewEngine(cfg config.EngineConfig, clock streak.Clock) (*Engine, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, errors.New(errors.ErrConfigLoad, "invalid engine timezone", err)
	}
	if clock == nil {
		clock = streak.RealClock{}
	}
	return &Engine{
		Clock:            clock,
		Location:         loc,
		FreezeWindowDays: cfg.FreezeWindowDays,
		PhotoBonusPoints: cfg.PhotoBonusPoints,
		PointsPerHeart:   cfg.PointsPerHeart,
		JoinCodeLength:   cfg.JoinCodeLength,
		DefaultDuration:  cfg.DefaultDuration,
	}, nil
}

// CurrentDay is the challenge's day number right now.
func (e *Engine) CurrentDay(c *models.Challenge) int {
	return streak.DayNumber(c.StartDate, e.Clock.Now(), e.Location)
}

// CanModify reports whether the freeze window is still open on day.
func (e *Engine) CanModify(day int) bool {
	return day <= e.FreezeWindowDays
}

// streakDay caps the continuity horizon at the day after the last challenge day.
func streakDay(c *models.Challenge, day int) int {
	if day > c.DurationDays {
		return c.DurationDays + 1
	}
	return day
}

// derived is the state of one membership folded from its logs.
type derived struct {
	Checkins    []models.Checkin
	Txs         []models.HeartsTransaction
	TotalPoints int
	BonusPoints int
	Balance     streak.Balance
	Continuity  streak.Continuity
}

func (d *derived) checkedDays() []int {
	days := make([]int, 0, len(d.Checkins))
	for _, c := range d.Checkins {
		days = append(days, c.DayNumber)
	}
	return days
}

func (d *derived) checkin(day int) *models.Checkin {
	for i := range d.Checkins {
		if d.Checkins[i].DayNumber == day {
			return &d.Checkins[i]
		}
	}
	return nil
}

// derive folds the check-in and hearts logs of m as of day.
func (e *Engine) derive(ctx context.Context, r repository.Repos, c *models.Challenge, m *models.Membership, day int) (*derived, error) {
	horizon := c.DurationDays
	if day > horizon {
		horizon = day
	}
	checkins, err := r.Checkins.ListRange(ctx, m.ID, 1, horizon)
	if err != nil {
		return nil, err
	}
	txs, err := r.Hearts.ListForMember(ctx, c.ID, m.ID)
	if err != nil {
		return nil, err
	}

	d := &derived{Checkins: checkins, Txs: txs}
	for _, ck := range checkins {
		d.TotalPoints += ck.PointsEarned
		d.BonusPoints += ck.BonusPoints
	}
	minted := streak.Minted(d.BonusPoints, c.PointsToHeartsEnabled, e.PointsPerHeart, c.HeartsPer100Points)
	d.Balance = streak.Fold(m.ID, minted, txs)
	d.Continuity = streak.Evaluate(streakDay(c, day), d.checkedDays(), streak.ProtectedDays(m.ID, txs))
	return d, nil
}

// apply copies the folded values onto the membership's cache columns. It is
// the only place those columns are assigned.
func apply(m *models.Membership, d *derived) {
	m.TotalPoints = d.TotalPoints
	m.BonusPoints = d.BonusPoints
	m.CurrentStreak = d.Continuity.CurrentStreak
	m.HeartsEarned = d.Balance.Earned
	m.HeartsUsed = d.Balance.Used
	m.HeartsAvailable = d.Balance.Available
}

// rebuild re-derives m and persists its cache columns.
func (e *Engine) rebuild(ctx context.Context, r repository.Repos, c *models.Challenge, m *models.Membership, day int) (*derived, error) {
	d, err := e.derive(ctx, r, c, m, day)
	if err != nil {
		return nil, err
	}
	apply(m, d)
	if err := r.Members.Save(ctx, m); err != nil {
		return nil, err
	}
	return d, nil
}

// resolution loads and resolves the challenge template.
func resolution(ctx context.Context, r repository.Repos, c *models.Challenge) (streak.Resolution, error) {
	t, err := r.Habits.GetTemplate(ctx, c.TemplateID)
	if err != nil {
		return streak.Resolution{}, err
	}
	if t == nil {
		return streak.Resolution{}, errors.Newf(errors.ErrNotFound, "template %s not found", c.TemplateID)
	}
	res := streak.Resolve(t)
	if len(res.Invalid) > 0 {
		logger.WithFields(map[string]interface{}{
			"template_id": t.ID,
			"habit_ids":   res.Invalid,
		}).Warn("invalid habit points resolved to 0")
	}
	return res, nil
}

func loadChallenge(ctx context.Context, r repository.Repos, challengeID string) (*models.Challenge, error) {
	c, err := r.Challenges.Get(ctx, challengeID)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errors.Newf(errors.ErrNotFound, "challenge %s not found", challengeID)
	}
	return c, nil
}

func activeMember(ctx context.Context, r repository.Repos, challengeID, userID string) (*models.Membership, error) {
	m, err := r.Members.GetActive(ctx, challengeID, userID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, errors.ErrNotMember
	}
	return m, nil
}

func requireAdmin(ctx context.Context, r repository.Repos, challengeID, userID string) (*models.Membership, error) {
	m, err := activeMember(ctx, r, challengeID, userID)
	if err != nil {
		return nil, err
	}
	if !m.IsAdmin() {
		return nil, errors.ErrForbidden
	}
	return m, nil
}

// wrap leaves coded errors alone and tags store failures with code.
func wrap(code, message string, err error) error {
	if err == nil || errors.CodeOf(err) != "" {
		return err
	}
	return errors.New(code, message, err)
}
