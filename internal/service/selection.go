package service

import (
	"context"

	"github.com/appsparrow/streakzilla/internal/models"
	"github.com/appsparrow/streakzilla/internal/repository"
	"github.com/appsparrow/streakzilla/internal/streak"
	"github.com/appsparrow/streakzilla/pkg/errors"
	"github.com/appsparrow/streakzilla/pkg/logger"
)

// SelectionService governs which template habits a member tracks.
type SelectionService struct {
	store  repository.Store
	engine *Engine
}

func NewSelectionService(store repository.Store, engine *Engine) *SelectionService {
	return &SelectionService{store: store, engine: engine}
}

type HabitsView struct {
	DayNumber       int                    `json:"day_number"`
	CanModifyHabits bool                   `json:"can_modify_habits"`
	Habits          []streak.ResolvedHabit `json:"habits"`
	Selected        []string               `json:"selected"`
}

// CanModify reports whether the challenge is still inside its freeze window.
func (s *SelectionService) CanModify(ctx context.Context, challengeID string) (bool, error) {
	var ok bool
	err := s.store.Tx(ctx, func(r repository.Repos) error {
		challenge, err := loadChallenge(ctx, r, challengeID)
		if err != nil {
			return err
		}
		ok = s.engine.CanModify(s.engine.CurrentDay(challenge))
		return nil
	})
	return ok, err
}

// Habits returns the resolved template pool and the member's current selection.
func (s *SelectionService) Habits(ctx context.Context, challengeID, userID string) (*HabitsView, error) {
	var view *HabitsView
	err := s.store.Tx(ctx, func(r repository.Repos) error {
		challenge, err := loadChallenge(ctx, r, challengeID)
		if err != nil {
			return err
		}
		member, err := activeMember(ctx, r, challenge.ID, userID)
		if err != nil {
			return err
		}
		res, err := resolution(ctx, r, challenge)
		if err != nil {
			return err
		}
		selected, err := r.Habits.Selection(ctx, member.ID)
		if err != nil {
			return err
		}

		day := s.engine.CurrentDay(challenge)
		view = &HabitsView{
			DayNumber:       day,
			CanModifyHabits: s.engine.CanModify(day),
			Habits:          res.Habits,
			Selected:        ids(res.ForSelection(selected)),
		}
		return nil
	})
	if err != nil {
		return nil, wrap(errors.ErrSelection, "load habits failed", err)
	}
	return view, nil
}

// SaveSelection replaces the member's habits while the freeze window is open
// and rescores every recorded day against the new selection.
func (s *SelectionService) SaveSelection(ctx context.Context, challengeID, userID string, habitIDs []string) (*HabitsView, error) {
	var (
		view   *HabitsView
		member *models.Membership
	)
	err := s.store.Tx(ctx, func(r repository.Repos) error {
		challenge, err := loadChallenge(ctx, r, challengeID)
		if err != nil {
			return err
		}
		member, err = activeMember(ctx, r, challenge.ID, userID)
		if err != nil {
			return err
		}

		day := s.engine.CurrentDay(challenge)
		if !s.engine.CanModify(day) {
			return errors.Newf(errors.ErrSelectionFrozen, "habits can only change during the first %d days, today is day %d", s.engine.FreezeWindowDays, day)
		}

		res, err := resolution(ctx, r, challenge)
		if err != nil {
			return err
		}
		want := make([]string, 0, len(habitIDs))
		for _, id := range habitIDs {
			if _, ok := res.Lookup(id); !ok {
				return errors.Newf(errors.ErrInvalidArgument, "habit %s is not part of the challenge template", id)
			}
			want = append(want, id)
		}
		if streak.Mode(challenge.Mode).LocksCore() {
			want = append(want, ids(res.Core())...)
		}
		selection := res.ForSelection(want)
		if len(selection) == 0 {
			return errors.ErrNoHabitsSelected
		}

		if err := r.Habits.ReplaceSelection(ctx, member.ID, ids(selection)); err != nil {
			return err
		}
		if err := s.engine.rescore(ctx, r, challenge, member, selection, day); err != nil {
			return err
		}

		view = &HabitsView{
			DayNumber:       day,
			CanModifyHabits: true,
			Habits:          res.Habits,
			Selected:        ids(selection),
		}
		return nil
	})
	if err != nil {
		return nil, wrap(errors.ErrSelection, "save selection failed", err)
	}

	logger.WithFields(map[string]interface{}{
		"challenge_id":  challengeID,
		"membership_id": member.ID,
		"habits":        len(view.Selected),
		"total_points":  member.TotalPoints,
	}).Info("habit selection saved")
	return view, nil
}

// rescore recomputes every check-in of m against selection and rebuilds the
// totals as sums. A pre_recalculation backup is written first when there is
// anything to rescore.
func (e *Engine) rescore(ctx context.Context, r repository.Repos, c *models.Challenge, m *models.Membership, selection []streak.ResolvedHabit, day int) error {
	d, err := e.derive(ctx, r, c, m, day)
	if err != nil {
		return err
	}
	if len(d.Checkins) > 0 {
		if err := r.Backups.Create(ctx, snapshotBackup(c, m, d, models.BackupTypePreRecalculation)); err != nil {
			return err
		}
	}

	mode := streak.Mode(c.Mode)
	for i := range d.Checkins {
		ck := &d.Checkins[i]
		score := streak.ScoreDay(mode, selection, ck.CompletedHabitIDs, ck.PhotoBonusAwarded, e.PhotoBonusPoints)
		if score.Points == ck.PointsEarned && score.BonusPoints == ck.BonusPoints {
			continue
		}
		ck.PointsEarned = score.Points
		ck.BonusPoints = score.BonusPoints
		if err := r.Checkins.Save(ctx, ck); err != nil {
			return err
		}
	}
	_, err = e.rebuild(ctx, r, c, m, day)
	return err
}

func ids(habits []streak.ResolvedHabit) []string {
	out := make([]string, 0, len(habits))
	for _, h := range habits {
		out = append(out, h.ID)
	}
	return out
}
