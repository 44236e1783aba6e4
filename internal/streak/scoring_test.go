package streak

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func bonus(id string, points int) ResolvedHabit {
	return ResolvedHabit{ID: id, EffectivePoints: points}
}

func core(id string, points int) ResolvedHabit {
	return ResolvedHabit{ID: id, IsCore: true, EffectivePoints: points}
}

func TestScoreDay_StandardMode(t *testing.T) {
	selection := []ResolvedHabit{bonus("a", 10), bonus("b", 15), bonus("c", 20)}

	score := ScoreDay(ModeCustom, selection, []string{"a", "b", "c"}, false, 5)

	assert.Equal(t, 45, score.Points)
	assert.Equal(t, 45, score.BonusPoints)
	assert.True(t, score.AllCoreComplete)
}

func TestScoreDay_StandardModeCountsCoreButNotAsBonus(t *testing.T) {
	selection := []ResolvedHabit{core("water", 10), bonus("read", 5)}

	score := ScoreDay(ModeHard, selection, []string{"water", "read"}, true, 5)

	assert.Equal(t, 15, score.Points, "no photo bonus outside plus modes")
	assert.Equal(t, 5, score.BonusPoints)
	assert.Equal(t, 0, score.PhotoBonus)
}

func TestScoreDay_PlusMode(t *testing.T) {
	selection := []ResolvedHabit{core("water", 0), core("workout", 0), bonus("cold", 10), bonus("journal", 7)}

	score := ScoreDay(ModeHardPlus, selection, []string{"water", "workout", "cold"}, true, 5)

	assert.Equal(t, 15, score.Points)
	assert.Equal(t, 15, score.BonusPoints)
	assert.Equal(t, 5, score.PhotoBonus)
	assert.True(t, score.AllCoreComplete)
}

func TestScoreDay_PlusModeCorePointsNeverCount(t *testing.T) {
	selection := []ResolvedHabit{core("water", 25), bonus("cold", 10)}

	score := ScoreDay(ModeHardPlus, selection, []string{"water"}, false, 5)

	assert.Equal(t, 0, score.Points)
	assert.Equal(t, 0, score.BonusPoints)
	assert.False(t, ScoreDay(ModeHardPlus, selection, []string{"cold"}, false, 5).AllCoreComplete)
}

func TestMergeDay_IsAdditiveAndIdempotent(t *testing.T) {
	selection := []ResolvedHabit{bonus("a", 10), bonus("b", 15), bonus("c", 20)}

	first := MergeDay(ModeCustom, selection, nil, false, Submission{Completed: []string{"a", "b"}}, 5)
	assert.Equal(t, 25, first.Score.Points)
	assert.Equal(t, []string{"a", "b"}, first.Added)

	again := MergeDay(ModeCustom, selection, first.Completed, first.PhotoBonusAwarded, Submission{Completed: []string{"a", "b"}}, 5)
	assert.Equal(t, first.Score.Points, again.Score.Points)
	assert.Empty(t, again.Added)

	more := MergeDay(ModeCustom, selection, first.Completed, first.PhotoBonusAwarded, Submission{Completed: []string{"b", "c"}}, 5)
	assert.Equal(t, 45, more.Score.Points)
	assert.Equal(t, []string{"c"}, more.Added)
	assert.Equal(t, []string{"a", "b", "c"}, more.Completed)
}

func TestMergeDay_PhotoBonusOncePerDay(t *testing.T) {
	selection := []ResolvedHabit{core("water", 0), bonus("cold", 10)}

	first := MergeDay(ModeHardPlus, selection, nil, false, Submission{Completed: []string{"water"}, HasPhoto: true}, 5)
	assert.True(t, first.PhotoBonusAwarded)
	assert.Equal(t, 5, first.Score.Points)

	second := MergeDay(ModeHardPlus, selection, first.Completed, true, Submission{Completed: []string{"cold"}, HasPhoto: true}, 5)
	assert.Equal(t, 15, second.Score.Points)
}
