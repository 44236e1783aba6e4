package service

import (
	"context"

	"github.com/appsparrow/streakzilla/internal/models"
	"github.com/appsparrow/streakzilla/internal/repository"
	"github.com/appsparrow/streakzilla/internal/streak"
	"github.com/appsparrow/streakzilla/pkg/errors"
	"github.com/appsparrow/streakzilla/pkg/logger"
)

type HeartsService struct {
	store  repository.Store
	engine *Engine
}

func NewHeartsService(store repository.Store, engine *Engine) *HeartsService {
	return &HeartsService{store: store, engine: engine}
}

type GiftRequest struct {
	ChallengeID string
	FromUserID  string
	ToUserID    string
	Amount      int
	Note        string
}

type GiftResult struct {
	Sender    *MemberSummary `json:"sender"`
	Recipient *MemberSummary `json:"recipient"`
}

// Gift moves hearts between two active members. Both balances are rebuilt in
// the same unit as the ledger entry.
func (s *HeartsService) Gift(ctx context.Context, req GiftRequest) (*GiftResult, error) {
	if req.Amount <= 0 {
		return nil, errors.Newf(errors.ErrInvalidArgument, "gift amount must be positive, got %d", req.Amount)
	}
	if req.FromUserID == req.ToUserID {
		return nil, errors.Newf(errors.ErrInvalidArgument, "cannot gift hearts to yourself")
	}

	var result *GiftResult
	err := s.store.Tx(ctx, func(r repository.Repos) error {
		challenge, err := loadChallenge(ctx, r, req.ChallengeID)
		if err != nil {
			return err
		}
		if !challenge.SharingAllowed() {
			return errors.ErrHeartSharingDisabled
		}

		// Lock both rows in a fixed order.
		first, second := req.FromUserID, req.ToUserID
		if second < first {
			first, second = second, first
		}
		a, err := activeMember(ctx, r, challenge.ID, first)
		if err != nil {
			return err
		}
		b, err := activeMember(ctx, r, challenge.ID, second)
		if err != nil {
			return err
		}
		sender, recipient := a, b
		if sender.UserID != req.FromUserID {
			sender, recipient = b, a
		}

		day := s.engine.CurrentDay(challenge)
		d, err := s.engine.derive(ctx, r, challenge, sender, day)
		if err != nil {
			return err
		}
		if d.Balance.Available < req.Amount {
			return errors.Newf(errors.ErrInsufficientHearts, "%d hearts available, %d requested", d.Balance.Available, req.Amount)
		}

		tx := &models.HeartsTransaction{
			ChallengeID:  challenge.ID,
			DayNumber:    clampDay(challenge, day),
			FromMemberID: sender.ID,
			ToMemberID:   recipient.ID,
			Amount:       req.Amount,
			Type:         models.HeartsGift,
			Note:         req.Note,
		}
		if err := r.Hearts.Append(ctx, tx); err != nil {
			return err
		}
		if _, err := s.engine.rebuild(ctx, r, challenge, sender, day); err != nil {
			return err
		}
		if _, err := s.engine.rebuild(ctx, r, challenge, recipient, day); err != nil {
			return err
		}
		result = &GiftResult{Sender: summarize(sender), Recipient: summarize(recipient)}
		return nil
	})
	if err != nil {
		return nil, wrap(errors.ErrHeartsUpdate, "gift failed", err)
	}

	logger.WithFields(map[string]interface{}{
		"challenge_id": req.ChallengeID,
		"from_member":  result.Sender.MembershipID,
		"to_member":    result.Recipient.MembershipID,
		"amount":       req.Amount,
	}).Info("hearts gifted")
	return result, nil
}

// ProtectDay spends one heart on the previous day if it was missed.
func (s *HeartsService) ProtectDay(ctx context.Context, challengeID, userID string) (*MemberSummary, int, error) {
	var (
		summary *MemberSummary
		target  int
	)
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
		target = day - 1
		if target < 1 || target > challenge.DurationDays {
			return errors.Newf(errors.ErrInvalidDay, "no protectable day on day %d", day)
		}

		d, err := s.engine.derive(ctx, r, challenge, member, day)
		if err != nil {
			return err
		}
		if d.checkin(target) != nil {
			return errors.Newf(errors.ErrInvalidDay, "day %d was checked in", target)
		}
		exists, err := r.Hearts.ExistsByKey(ctx, streak.ProtectionKey(challenge.ID, member.ID, target))
		if err != nil {
			return err
		}
		if exists {
			return errors.Newf(errors.ErrDuplicateProtection, "day %d is already protected", target)
		}
		if !challenge.PointsToHeartsEnabled || d.Balance.Available <= 0 {
			return errors.Newf(errors.ErrInsufficientHearts, "no hearts available to protect day %d", target)
		}

		protected, err := autoProtect(ctx, r, challenge, member, day, d)
		if err != nil {
			return err
		}
		if protected != target {
			return errors.Newf(errors.ErrDuplicateProtection, "day %d is already protected", target)
		}
		if _, err := s.engine.rebuild(ctx, r, challenge, member, day); err != nil {
			return err
		}
		summary = summarize(member)
		return nil
	})
	if err != nil {
		return nil, 0, wrap(errors.ErrHeartsUpdate, "protect day failed", err)
	}
	return summary, target, nil
}

type SeedRequest struct {
	ChallengeID string
	AdminUserID string
	UserID      string
	Amount      int
	Note        string
}

// SeedHearts credits hearts carried over from an older balance. Admin only.
func (s *HeartsService) SeedHearts(ctx context.Context, req SeedRequest) (*MemberSummary, error) {
	if req.Amount <= 0 {
		return nil, errors.Newf(errors.ErrInvalidArgument, "seed amount must be positive, got %d", req.Amount)
	}

	var summary *MemberSummary
	err := s.store.Tx(ctx, func(r repository.Repos) error {
		challenge, err := loadChallenge(ctx, r, req.ChallengeID)
		if err != nil {
			return err
		}
		admin, err := requireAdmin(ctx, r, challenge.ID, req.AdminUserID)
		if err != nil {
			return err
		}
		member := admin
		if req.UserID != req.AdminUserID {
			if member, err = activeMember(ctx, r, challenge.ID, req.UserID); err != nil {
				return err
			}
		}

		day := s.engine.CurrentDay(challenge)
		tx := &models.HeartsTransaction{
			ChallengeID:  challenge.ID,
			DayNumber:    clampDay(challenge, day),
			FromMemberID: admin.ID,
			ToMemberID:   member.ID,
			Amount:       req.Amount,
			Type:         models.HeartsMigrationSeed,
			Note:         req.Note,
		}
		if err := r.Hearts.Append(ctx, tx); err != nil {
			return err
		}
		if _, err := s.engine.rebuild(ctx, r, challenge, member, day); err != nil {
			return err
		}
		summary = summarize(member)
		return nil
	})
	if err != nil {
		return nil, wrap(errors.ErrHeartsUpdate, "seed hearts failed", err)
	}

	logger.WithFields(map[string]interface{}{
		"challenge_id":  req.ChallengeID,
		"membership_id": summary.MembershipID,
		"amount":        req.Amount,
	}).Info("hearts seeded")
	return summary, nil
}

type Ledger struct {
	Balance      streak.Balance             `json:"balance"`
	Transactions []models.HeartsTransaction `json:"transactions"`
}

// Ledger returns the member's transactions and the balance folded from them.
func (s *HeartsService) Ledger(ctx context.Context, challengeID, userID string) (*Ledger, error) {
	var ledger *Ledger
	err := s.store.Tx(ctx, func(r repository.Repos) error {
		challenge, err := loadChallenge(ctx, r, challengeID)
		if err != nil {
			return err
		}
		member, err := activeMember(ctx, r, challenge.ID, userID)
		if err != nil {
			return err
		}
		d, err := s.engine.derive(ctx, r, challenge, member, s.engine.CurrentDay(challenge))
		if err != nil {
			return err
		}
		txs := d.Txs
		if txs == nil {
			txs = []models.HeartsTransaction{}
		}
		ledger = &Ledger{Balance: d.Balance, Transactions: txs}
		return nil
	})
	if err != nil {
		return nil, wrap(errors.ErrHeartsUpdate, "load ledger failed", err)
	}
	return ledger, nil
}

func clampDay(c *models.Challenge, day int) int {
	if day > c.DurationDays {
		return c.DurationDays
	}
	return day
}
