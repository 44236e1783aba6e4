package service

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/appsparrow/streakzilla/internal/models"
	"github.com/appsparrow/streakzilla/internal/repository"
	"github.com/appsparrow/streakzilla/internal/streak"
	"github.com/appsparrow/streakzilla/pkg/errors"
	"github.com/appsparrow/streakzilla/pkg/logger"
)

const (
	joinCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	joinCodeAttempts = 10
)

// ChallengeService covers the challenge lifecycle and the read views.
type ChallengeService struct {
	store  repository.Store
	engine *Engine
}

func NewChallengeService(store repository.Store, engine *Engine) *ChallengeService {
	return &ChallengeService{store: store, engine: engine}
}

type CreateChallengeRequest struct {
	Name         string
	Mode         string
	TemplateID   string
	TemplateKey  string
	StartDate    time.Time
	DurationDays int
	CreatorID    string
}

// Create stores a new challenge and makes its creator the admin member.
func (s *ChallengeService) Create(ctx context.Context, req CreateChallengeRequest) (*models.Challenge, error) {
	mode := streak.Mode(req.Mode)
	if !mode.Valid() {
		return nil, errors.Newf(errors.ErrInvalidArgument, "unknown mode %q", req.Mode)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, errors.Newf(errors.ErrInvalidArgument, "challenge name is required")
	}
	if req.CreatorID == "" {
		return nil, errors.Newf(errors.ErrInvalidArgument, "creator is required")
	}
	duration := req.DurationDays
	if duration == 0 {
		duration = s.engine.DefaultDuration
	}
	if duration < 1 {
		return nil, errors.Newf(errors.ErrInvalidArgument, "duration must be at least 1 day, got %d", duration)
	}
	start := req.StartDate
	if start.IsZero() {
		start = s.engine.Clock.Now().In(s.engine.Location)
	}

	var challenge *models.Challenge
	err := s.store.Tx(ctx, func(r repository.Repos) error {
		var (
			t   *models.Template
			err error
		)
		if req.TemplateID != "" {
			t, err = r.Habits.GetTemplate(ctx, req.TemplateID)
		} else {
			t, err = r.Habits.GetTemplateByKey(ctx, req.TemplateKey)
		}
		if err != nil {
			return err
		}
		if t == nil {
			return errors.Newf(errors.ErrNotFound, "template %s%s not found", req.TemplateID, req.TemplateKey)
		}

		code, err := s.uniqueCode(ctx, r)
		if err != nil {
			return err
		}

		challenge = &models.Challenge{
			Name:                  name,
			Code:                  code,
			TemplateID:            t.ID,
			Mode:                  string(mode),
			StartDate:             streak.StartDate(start),
			DurationDays:          duration,
			IsActive:              true,
			PointsToHeartsEnabled: true,
			HeartsPer100Points:    1,
			HeartSharingEnabled:   true,
			CreatedBy:             req.CreatorID,
		}
		if err := r.Challenges.Create(ctx, challenge); err != nil {
			return err
		}

		return r.Members.Create(ctx, &models.Membership{
			ChallengeID:    challenge.ID,
			UserID:         req.CreatorID,
			Role:           models.RoleAdmin,
			Status:         models.StatusActive,
			JoinedAt:       s.engine.Clock.Now().UTC(),
			LivesRemaining: 1,
		})
	})
	if err != nil {
		return nil, wrap(errors.ErrChallenge, "create challenge failed", err)
	}

	logger.WithFields(map[string]interface{}{
		"challenge_id": challenge.ID,
		"code":         challenge.Code,
		"mode":         challenge.Mode,
		"start_date":   challenge.StartDate.Format("2006-01-02"),
	}).Info("challenge created")
	return challenge, nil
}

func (s *ChallengeService) uniqueCode(ctx context.Context, r repository.Repos) (string, error) {
	length := s.engine.JoinCodeLength
	if length <= 0 {
		length = 6
	}
	for i := 0; i < joinCodeAttempts; i++ {
		code, err := joinCode(length)
		if err != nil {
			return "", err
		}
		existing, err := r.Challenges.GetByCode(ctx, code)
		if err != nil {
			return "", err
		}
		if existing == nil {
			return code, nil
		}
	}
	return "", errors.Newf(errors.ErrInvalidArgument, "could not allocate a join code")
}

func joinCode(length int) (string, error) {
	size := big.NewInt(int64(len(joinCodeAlphabet)))
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		b.WriteByte(joinCodeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// Join adds the user to the challenge behind code.
func (s *ChallengeService) Join(ctx context.Context, code, userID string) (*models.Membership, error) {
	code = strings.ToUpper(strings.TrimSpace(code))

	var member *models.Membership
	err := s.store.Tx(ctx, func(r repository.Repos) error {
		challenge, err := r.Challenges.GetByCode(ctx, code)
		if err != nil {
			return err
		}
		if challenge == nil {
			return errors.Newf(errors.ErrNotFound, "no challenge with code %s", code)
		}
		if !challenge.IsActive {
			return errors.Newf(errors.ErrInvalidArgument, "challenge %s has ended", challenge.Name)
		}

		latest, err := r.Members.GetLatest(ctx, challenge.ID, userID)
		if err != nil {
			return err
		}
		if latest != nil {
			switch latest.Status {
			case models.StatusActive:
				return errors.ErrAlreadyMember
			case models.StatusEliminated:
				return errors.ErrMemberEliminated
			}
		}

		member = &models.Membership{
			ChallengeID:    challenge.ID,
			UserID:         userID,
			Role:           models.RoleMember,
			Status:         models.StatusActive,
			JoinedAt:       s.engine.Clock.Now().UTC(),
			LivesRemaining: 1,
		}
		return r.Members.Create(ctx, member)
	})
	if err != nil {
		return nil, wrap(errors.ErrChallenge, "join failed", err)
	}

	logger.WithFields(map[string]interface{}{
		"challenge_id":  member.ChallengeID,
		"membership_id": member.ID,
		"user_id":       userID,
	}).Info("member joined")
	return member, nil
}

func (s *ChallengeService) Leave(ctx context.Context, challengeID, userID string) error {
	err := s.store.Tx(ctx, func(r repository.Repos) error {
		member, err := activeMember(ctx, r, challengeID, userID)
		if err != nil {
			return err
		}
		return r.Members.Remove(ctx, member, models.StatusLeft)
	})
	return wrap(errors.ErrChallenge, "leave failed", err)
}

// Eliminate removes a member for good. Admin only.
func (s *ChallengeService) Eliminate(ctx context.Context, challengeID, adminUserID, userID string) error {
	if adminUserID == userID {
		return errors.Newf(errors.ErrInvalidArgument, "admins cannot eliminate themselves")
	}
	err := s.store.Tx(ctx, func(r repository.Repos) error {
		if _, err := requireAdmin(ctx, r, challengeID, adminUserID); err != nil {
			return err
		}
		member, err := activeMember(ctx, r, challengeID, userID)
		if err != nil {
			return err
		}
		return r.Members.Remove(ctx, member, models.StatusEliminated)
	})
	if err != nil {
		return wrap(errors.ErrChallenge, "eliminate failed", err)
	}

	logger.WithFields(map[string]interface{}{
		"challenge_id": challengeID,
		"user_id":      userID,
	}).Info("member eliminated")
	return nil
}

// Snapshot is a member's progress derived from the logs at read time.
type Snapshot struct {
	ChallengeID     string              `json:"challenge_id"`
	MembershipID    string              `json:"membership_id"`
	UserID          string              `json:"user_id"`
	Role            models.MemberRole   `json:"role"`
	Status          models.MemberStatus `json:"status"`
	DayNumber       int                 `json:"day_number"`
	DurationDays    int                 `json:"duration_days"`
	TotalPoints     int                 `json:"total_points"`
	BonusPoints     int                 `json:"bonus_points"`
	CurrentStreak   int                 `json:"current_streak"`
	Hearts          streak.Balance      `json:"hearts"`
	MissedDays      []int               `json:"missed_days"`
	ProtectedDays   []int               `json:"protected_days"`
	Today           *models.Checkin     `json:"today,omitempty"`
	CanModifyHabits bool                `json:"can_modify_habits"`
}

// Snapshot computes the member view without writing anything.
func (s *ChallengeService) Snapshot(ctx context.Context, challengeID, userID string) (*Snapshot, error) {
	var snap *Snapshot
	err := s.store.Tx(ctx, func(r repository.Repos) error {
		challenge, err := loadChallenge(ctx, r, challengeID)
		if err != nil {
			return err
		}
		member, err := activeMember(ctx, r, challenge.ID, userID)
		if err != nil {
			return err
		}
		day := s.engine.CurrentDay(challenge)
		d, err := s.engine.derive(ctx, r, challenge, member, day)
		if err != nil {
			return err
		}

		snap = &Snapshot{
			ChallengeID:     challenge.ID,
			MembershipID:    member.ID,
			UserID:          member.UserID,
			Role:            member.Role,
			Status:          member.Status,
			DayNumber:       day,
			DurationDays:    challenge.DurationDays,
			TotalPoints:     d.TotalPoints,
			BonusPoints:     d.BonusPoints,
			CurrentStreak:   d.Continuity.CurrentStreak,
			Hearts:          d.Balance,
			MissedDays:      d.Continuity.MissedDays,
			ProtectedDays:   d.Continuity.ProtectedDays,
			Today:           d.checkin(day),
			CanModifyHabits: s.engine.CanModify(day),
		}
		return nil
	})
	if err != nil {
		return nil, wrap(errors.ErrChallenge, "load snapshot failed", err)
	}
	return snap, nil
}

type LeaderboardEntry struct {
	Rank            int    `json:"rank"`
	UserID          string `json:"user_id"`
	MembershipID    string `json:"membership_id"`
	TotalPoints     int    `json:"total_points"`
	CurrentStreak   int    `json:"current_streak"`
	HeartsAvailable int    `json:"hearts_available"`
}

// Leaderboard ranks active members by total points.
func (s *ChallengeService) Leaderboard(ctx context.Context, challengeID string) ([]LeaderboardEntry, error) {
	var entries []LeaderboardEntry
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
		entries = make([]LeaderboardEntry, 0, len(members))
		for i := range members {
			d, err := s.engine.derive(ctx, r, challenge, &members[i], day)
			if err != nil {
				return err
			}
			entries = append(entries, LeaderboardEntry{
				Rank:            i + 1,
				UserID:          members[i].UserID,
				MembershipID:    members[i].ID,
				TotalPoints:     d.TotalPoints,
				CurrentStreak:   d.Continuity.CurrentStreak,
				HeartsAvailable: d.Balance.Available,
			})
		}
		return nil
	})
	if err != nil {
		return nil, wrap(errors.ErrChallenge, "load leaderboard failed", err)
	}
	return entries, nil
}

// DeactivateExpired closes challenges whose last day has passed and returns
// the ids that are still active.
func (s *ChallengeService) DeactivateExpired(ctx context.Context) (active []string, closed []string, err error) {
	err = s.store.Tx(ctx, func(r repository.Repos) error {
		challenges, err := r.Challenges.ListActive(ctx)
		if err != nil {
			return err
		}
		for i := range challenges {
			c := &challenges[i]
			if s.engine.CurrentDay(c) <= c.DurationDays {
				active = append(active, c.ID)
				continue
			}
			c.IsActive = false
			if err := r.Challenges.Save(ctx, c); err != nil {
				return err
			}
			closed = append(closed, c.ID)
		}
		return nil
	})
	if err != nil {
		return nil, nil, wrap(errors.ErrMaintenance, "deactivate challenges failed", err)
	}
	return active, closed, nil
}

// Refresh rewrites the cached streak and hearts columns of every active
// member from the logs. It never spends hearts.
func (s *ChallengeService) Refresh(ctx context.Context, challengeID string) (int, error) {
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
			if _, err := s.engine.rebuild(ctx, r, challenge, &members[i], day); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, wrap(errors.ErrMaintenance, "refresh members failed", err)
	}
	return count, nil
}
