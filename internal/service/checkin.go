package service

import (
	"context"

	"github.com/appsparrow/streakzilla/internal/models"
	"github.com/appsparrow/streakzilla/internal/repository"
	"github.com/appsparrow/streakzilla/internal/streak"
	"github.com/appsparrow/streakzilla/pkg/errors"
	"github.com/appsparrow/streakzilla/pkg/logger"
)

type CheckinService struct {
	store  repository.Store
	engine *Engine
}

func NewCheckinService(store repository.Store, engine *Engine) *CheckinService {
	return &CheckinService{store: store, engine: engine}
}

type CheckinRequest struct {
	ChallengeID string
	UserID      string
	DayNumber   int
	HabitIDs    []string
	PhotoRef    string
	Note        string
}

type CheckinResult struct {
	DayNumber       int            `json:"day_number"`
	PointsEarned    int            `json:"points_earned"`
	PointsAdded     int            `json:"points_added"`
	BonusPoints     int            `json:"bonus_points"`
	AllCoreComplete bool           `json:"all_core_complete"`
	ProtectedDay    int            `json:"protected_day,omitempty"`
	Member          *MemberSummary `json:"member"`
}

// MemberSummary is the cached totals view of a membership after a write.
type MemberSummary struct {
	MembershipID    string `json:"membership_id"`
	TotalPoints     int    `json:"total_points"`
	BonusPoints     int    `json:"bonus_points"`
	CurrentStreak   int    `json:"current_streak"`
	HeartsEarned    int    `json:"hearts_earned"`
	HeartsUsed      int    `json:"hearts_used"`
	HeartsAvailable int    `json:"hearts_available"`
}

func summarize(m *models.Membership) *MemberSummary {
	return &MemberSummary{
		MembershipID:    m.ID,
		TotalPoints:     m.TotalPoints,
		BonusPoints:     m.BonusPoints,
		CurrentStreak:   m.CurrentStreak,
		HeartsEarned:    m.HeartsEarned,
		HeartsUsed:      m.HeartsUsed,
		HeartsAvailable: m.HeartsAvailable,
	}
}

// CheckIn records the current day's completed habits. A second call on the
// same day only adds habits. Scoring, continuity, automatic protection of
// the previous day and the member totals are written as one unit.
func (s *CheckinService) CheckIn(ctx context.Context, req CheckinRequest) (*CheckinResult, error) {
	var result *CheckinResult

	err := s.store.Tx(ctx, func(r repository.Repos) error {
		challenge, err := loadChallenge(ctx, r, req.ChallengeID)
		if err != nil {
			return err
		}

		day := s.engine.CurrentDay(challenge)
		if req.DayNumber != day {
			return errors.Newf(errors.ErrInvalidDay, "day %d is not the current day %d", req.DayNumber, day)
		}
		if !challenge.IsActive || day > challenge.DurationDays {
			return errors.Newf(errors.ErrInvalidDay, "challenge ended on day %d", challenge.DurationDays)
		}

		member, err := activeMember(ctx, r, challenge.ID, req.UserID)
		if err != nil {
			return err
		}

		res, err := resolution(ctx, r, challenge)
		if err != nil {
			return err
		}
		selectedIDs, err := r.Habits.Selection(ctx, member.ID)
		if err != nil {
			return err
		}
		selection := res.ForSelection(selectedIDs)
		if len(selection) == 0 {
			return errors.ErrNoHabitsSelected
		}
		if err := validateCompleted(selection, req.HabitIDs); err != nil {
			return err
		}
		if len(req.HabitIDs) == 0 && req.PhotoRef == "" {
			return errors.Newf(errors.ErrInvalidArgument, "check-in needs at least one habit or a progress photo")
		}

		existing, err := r.Checkins.Get(ctx, member.ID, day)
		if err != nil {
			return err
		}

		mode := streak.Mode(challenge.Mode)
		sub := streak.Submission{Completed: req.HabitIDs, HasPhoto: req.PhotoRef != ""}
		var (
			prevPoints int
			merge      streak.Merge
		)
		if existing == nil {
			merge = streak.MergeDay(mode, selection, nil, false, sub, s.engine.PhotoBonusPoints)
			existing = &models.Checkin{
				MembershipID: member.ID,
				ChallengeID:  challenge.ID,
				UserID:       member.UserID,
				DayNumber:    day,
			}
		} else {
			prevPoints = existing.PointsEarned
			merge = streak.MergeDay(mode, selection, existing.CompletedHabitIDs, existing.PhotoBonusAwarded, sub, s.engine.PhotoBonusPoints)
		}

		// A day's score moves as one unit and only upwards: the merged
		// score replaces the stored points and bonus together when it earns
		// more, otherwise both stay as recorded.
		existing.CompletedHabitIDs = models.HabitIDs(merge.Completed)
		existing.PhotoBonusAwarded = merge.PhotoBonusAwarded
		if merge.Score.Points > prevPoints || existing.ID == "" {
			existing.PointsEarned = merge.Score.Points
			existing.BonusPoints = merge.Score.BonusPoints
		}
		if existing.PhotoRef == "" {
			existing.PhotoRef = req.PhotoRef
		}
		if req.Note != "" {
			existing.Note = req.Note
		}

		if existing.ID == "" {
			err = r.Checkins.Create(ctx, existing)
		} else {
			err = r.Checkins.Save(ctx, existing)
		}
		if err != nil {
			return err
		}

		d, err := s.engine.rebuild(ctx, r, challenge, member, day)
		if err != nil {
			return err
		}

		protected, err := autoProtect(ctx, r, challenge, member, day, d)
		if err != nil {
			return err
		}
		if protected > 0 {
			if _, err := s.engine.rebuild(ctx, r, challenge, member, day); err != nil {
				return err
			}
		}

		result = &CheckinResult{
			DayNumber:       day,
			PointsEarned:    existing.PointsEarned,
			PointsAdded:     existing.PointsEarned - prevPoints,
			BonusPoints:     existing.BonusPoints,
			AllCoreComplete: merge.Score.AllCoreComplete,
			ProtectedDay:    protected,
			Member:          summarize(member),
		}
		return nil
	})
	if err != nil {
		return nil, wrap(errors.ErrCheckin, "check-in failed", err)
	}

	logger.WithFields(map[string]interface{}{
		"challenge_id":     req.ChallengeID,
		"membership_id":    result.Member.MembershipID,
		"day_number":       result.DayNumber,
		"points_earned":    result.PointsEarned,
		"points_added":     result.PointsAdded,
		"hearts_available": result.Member.HeartsAvailable,
	}).Info("check-in recorded")

	return result, nil
}

func validateCompleted(selection []streak.ResolvedHabit, completed []string) error {
	selected := make(map[string]bool, len(selection))
	for _, h := range selection {
		selected[h.ID] = true
	}
	for _, id := range completed {
		if !selected[id] {
			return errors.Newf(errors.ErrHabitNotSelected, "habit %s is not selected", id)
		}
	}
	return nil
}

// autoProtect spends one heart on the immediately preceding day when it was
// missed. It returns the protected day, or 0.
func autoProtect(ctx context.Context, r repository.Repos, c *models.Challenge, m *models.Membership, day int, d *derived) (int, error) {
	if !c.PointsToHeartsEnabled {
		return 0, nil
	}
	candidate, ok := streak.ProtectionCandidate(day, d.checkedDays(), streak.ProtectedDays(m.ID, d.Txs), d.Balance.Available)
	if !ok {
		return 0, nil
	}

	key := streak.ProtectionKey(c.ID, m.ID, candidate)
	exists, err := r.Hearts.ExistsByKey(ctx, key)
	if err != nil {
		return 0, err
	}
	if exists {
		return 0, nil
	}

	tx := &models.HeartsTransaction{
		ChallengeID:    c.ID,
		DayNumber:      candidate,
		FromMemberID:   m.ID,
		ToMemberID:     m.ID,
		Amount:         1,
		Type:           models.HeartsAutoUse,
		Note:           "automatic protection",
		IdempotencyKey: &key,
	}
	if err := r.Hearts.Append(ctx, tx); err != nil {
		return 0, err
	}

	logger.ForChallenge(c.ID, m.ID).WithField("day_number", candidate).Info("heart used to protect missed day")
	return candidate, nil
}
