package streak

import (
	"testing"

	"github.com/appsparrow/streakzilla/internal/models"

	"github.com/stretchr/testify/assert"
)

func TestMinted(t *testing.T) {
	assert.Equal(t, 0, Minted(95, true, 100, 1))
	assert.Equal(t, 1, Minted(105, true, 100, 1))
	assert.Equal(t, 3, Minted(399, true, 100, 1))
	assert.Equal(t, 0, Minted(500, false, 100, 1))
	assert.Equal(t, 0, Minted(-50, true, 100, 1))
}

func TestFold(t *testing.T) {
	txs := []models.HeartsTransaction{
		{Type: models.HeartsAutoUse, FromMemberID: "m1", ToMemberID: "m1", Amount: 1, DayNumber: 4},
		{Type: models.HeartsGift, FromMemberID: "m1", ToMemberID: "m2", Amount: 1},
		{Type: models.HeartsGift, FromMemberID: "m3", ToMemberID: "m1", Amount: 2},
		{Type: models.HeartsMigrationSeed, FromMemberID: "m1", ToMemberID: "m1", Amount: 1},
	}

	b := Fold("m1", 2, txs)
	assert.Equal(t, Balance{Earned: 5, Used: 2, Available: 3}, b)

	b2 := Fold("m2", 0, txs)
	assert.Equal(t, Balance{Earned: 1, Used: 0, Available: 1}, b2)
}

func TestFold_NeverNegative(t *testing.T) {
	txs := []models.HeartsTransaction{
		{Type: models.HeartsAutoUse, FromMemberID: "m1", ToMemberID: "m1", Amount: 1, DayNumber: 2},
		{Type: models.HeartsAutoUse, FromMemberID: "m1", ToMemberID: "m1", Amount: 1, DayNumber: 5},
	}

	b := Fold("m1", 1, txs)
	assert.Equal(t, 0, b.Available)
	assert.Equal(t, 2, b.Used)
}

func TestProtectedDays(t *testing.T) {
	txs := []models.HeartsTransaction{
		{Type: models.HeartsAutoUse, FromMemberID: "m1", Amount: 1, DayNumber: 5},
		{Type: models.HeartsAutoUse, FromMemberID: "m2", Amount: 1, DayNumber: 6},
		{Type: models.HeartsGift, FromMemberID: "m1", Amount: 1, DayNumber: 7},
	}

	assert.Equal(t, []int{5}, ProtectedDays("m1", txs))
}

func TestProtectionKey_Stable(t *testing.T) {
	k := ProtectionKey("c1", "m1", 5)

	assert.Len(t, k, 64)
	assert.Equal(t, k, ProtectionKey("c1", "m1", 5))
	assert.NotEqual(t, k, ProtectionKey("c1", "m1", 6))
	assert.NotEqual(t, k, ProtectionKey("c1", "m2", 5))
}
