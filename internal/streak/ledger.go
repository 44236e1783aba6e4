package streak

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/appsparrow/streakzilla/internal/models"
)

// Balance is a member's hearts position. Available is never negative.
type Balance struct {
	Earned    int `json:"hearts_earned"`
	Used      int `json:"hearts_used"`
	Available int `json:"hearts_available"`
}

// Minted is the number of hearts earned from bonus points: one batch of
// heartsPer100 for every full pointsPerHeart bonus points, 0 when the
// points-to-hearts system is off.
func Minted(bonusPoints int, enabled bool, pointsPerHeart, heartsPer100 int) int {
	if !enabled || bonusPoints <= 0 || pointsPerHeart <= 0 {
		return 0
	}
	if heartsPer100 <= 0 {
		heartsPer100 = 1
	}
	return (bonusPoints / pointsPerHeart) * heartsPer100
}

// Fold derives a member's balance from minted hearts and the transaction log.
// Credits are gifts and seeds received; debits are auto-protections and
// gifts sent.
func Fold(memberID string, minted int, txs []models.HeartsTransaction) Balance {
	b := Balance{Earned: minted}
	for _, tx := range txs {
		if tx.Amount <= 0 {
			continue
		}
		switch tx.Type {
		case models.HeartsAutoUse:
			if tx.FromMemberID == memberID {
				b.Used += tx.Amount
			}
		case models.HeartsGift:
			if tx.FromMemberID == memberID {
				b.Used += tx.Amount
			}
			if tx.ToMemberID == memberID {
				b.Earned += tx.Amount
			}
		case models.HeartsMigrationSeed:
			if tx.ToMemberID == memberID {
				b.Earned += tx.Amount
			}
		}
	}
	b.Available = b.Earned - b.Used
	if b.Available < 0 {
		b.Available = 0
	}
	return b
}

// ProtectedDays lists the days covered by the member's auto_use entries.
func ProtectedDays(memberID string, txs []models.HeartsTransaction) []int {
	var days []int
	seen := make(map[int]bool)
	for _, tx := range txs {
		if tx.Type == models.HeartsAutoUse && tx.FromMemberID == memberID && !seen[tx.DayNumber] {
			seen[tx.DayNumber] = true
			days = append(days, tx.DayNumber)
		}
	}
	return days
}

// ProtectionKey is the idempotency key of an auto-protection for one
// (challenge, member, day).
func ProtectionKey(challengeID, memberID string, day int) string {
	data := fmt.Sprintf("%s:%s:%s:%d", models.HeartsAutoUse, challengeID, memberID, day)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])
}
