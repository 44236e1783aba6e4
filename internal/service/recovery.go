package service

import (
	"context"
	"strconv"
	"time"

	"github.com/appsparrow/streakzilla/internal/models"
	"github.com/appsparrow/streakzilla/internal/repository"
	"github.com/appsparrow/streakzilla/pkg/errors"
	"github.com/appsparrow/streakzilla/pkg/logger"
)

// RecoveryService snapshots member totals and rebuilds them from the logs.
type RecoveryService struct {
	store  repository.Store
	engine *Engine
}

func NewRecoveryService(store repository.Store, engine *Engine) *RecoveryService {
	return &RecoveryService{store: store, engine: engine}
}

func snapshotBackup(c *models.Challenge, m *models.Membership, d *derived, backupType models.BackupType) *models.MemberBackup {
	days := make(map[string]interface{}, len(d.Checkins))
	for _, ck := range d.Checkins {
		days[strconv.Itoa(ck.DayNumber)] = map[string]interface{}{
			"points_earned": ck.PointsEarned,
			"bonus_points":  ck.BonusPoints,
			"habits":        []string(ck.CompletedHabitIDs),
		}
	}

	return &models.MemberBackup{
		ChallengeID:  c.ID,
		MembershipID: m.ID,
		BackupType:   backupType,
		BackupData: models.JSONB{
			"user_id":          m.UserID,
			"total_points":     m.TotalPoints,
			"bonus_points":     m.BonusPoints,
			"current_streak":   m.CurrentStreak,
			"hearts_earned":    m.HeartsEarned,
			"hearts_used":      m.HeartsUsed,
			"hearts_available": m.HeartsAvailable,
			"checkins":         days,
		},
	}
}

// BackupChallenge writes a totals snapshot for every active member and
// returns how many were written.
func (s *RecoveryService) BackupChallenge(ctx context.Context, challengeID string) (int, error) {
	var count int
	err := s.store.Tx(ctx, func(r repository.Repos) error {
		challenge, err := loadChallenge(ctx, r, challengeID)
		if err != nil {
			return err
		}
		members, err := r.Members.ListActive(ctx, challenge.ID)
		if err != nil {
			return err
		}

		day := s.engine.CurrentDay(challenge)
		for i := range members {
			m := &members[i]
			d, err := s.engine.derive(ctx, r, challenge, m, day)
			if err != nil {
				return err
			}
			if err := r.Backups.Create(ctx, snapshotBackup(challenge, m, d, models.BackupTypeTotalsSnapshot)); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, wrap(errors.ErrRecalculation, "backup failed", err)
	}
	return count, nil
}

// Recalculate rescores a member's check-ins with their current selection
// and rebuilds totals and hearts from the logs. Admin only.
func (s *RecoveryService) Recalculate(ctx context.Context, challengeID, adminUserID, userID string) (*MemberSummary, error) {
	logger.WithFields(map[string]interface{}{
		"challenge_id": challengeID,
		"user_id":      userID,
	}).Info("starting recalculation")

	var summary *MemberSummary
	err := s.store.Tx(ctx, func(r repository.Repos) error {
		challenge, err := loadChallenge(ctx, r, challengeID)
		if err != nil {
			return err
		}
		if _, err := requireAdmin(ctx, r, challenge.ID, adminUserID); err != nil {
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
		selection := res.ForSelection(selected)
		if len(selection) == 0 {
			return errors.ErrNoHabitsSelected
		}

		if err := s.engine.rescore(ctx, r, challenge, member, selection, s.engine.CurrentDay(challenge)); err != nil {
			return err
		}
		summary = summarize(member)
		return nil
	})
	if err != nil {
		return nil, wrap(errors.ErrRecalculation, "recalculation failed", err)
	}

	logger.WithFields(map[string]interface{}{
		"challenge_id":  challengeID,
		"membership_id": summary.MembershipID,
		"total_points":  summary.TotalPoints,
	}).Info("recalculation completed")
	return summary, nil
}

func (s *RecoveryService) Backups(ctx context.Context, challengeID, userID string, limit int) ([]models.MemberBackup, error) {
	var backups []models.MemberBackup
	err := s.store.Tx(ctx, func(r repository.Repos) error {
		member, err := activeMember(ctx, r, challengeID, userID)
		if err != nil {
			return err
		}
		backups, err = r.Backups.ListForMember(ctx, member.ID, limit)
		return err
	})
	if err != nil {
		return nil, wrap(errors.ErrRecalculation, "list backups failed", err)
	}
	return backups, nil
}

// PruneBackups deletes backups older than retention.
func (s *RecoveryService) PruneBackups(ctx context.Context, retention time.Duration) (int64, error) {
	var removed int64
	err := s.store.Tx(ctx, func(r repository.Repos) error {
		var err error
		removed, err = r.Backups.DeleteOlderThan(ctx, s.engine.Clock.Now().Add(-retention))
		return err
	})
	if err != nil {
		return 0, wrap(errors.ErrRecalculation, "prune backups failed", err)
	}
	return removed, nil
}
