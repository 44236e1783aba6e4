package streak

import (
	"math"
	"testing"

	"github.com/appsparrow/streakzilla/internal/models"
	apperrors "github.com/appsparrow/streakzilla/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func boolPtr(b bool) *bool        { return &b }
func floatPtr(f float64) *float64 { return &f }
func intPtr(i int) *int           { return &i }

func mapping(id string, h models.Habit) models.TemplateHabit {
	h.ID = id
	return models.TemplateHabit{HabitID: id, Habit: h}
}

func TestClassifyCore_Precedence(t *testing.T) {
	cases := []struct {
		name     string
		m        models.TemplateHabit
		wantCore bool
		wantRule string
	}{
		{
			name:     "mapping wins over every legacy field",
			m:        models.TemplateHabit{IsCore: boolPtr(false), Habit: models.Habit{IsCore: boolPtr(true), TemplateSet: "75_hard", Category: "core", Points: floatPtr(0)}},
			wantCore: false,
			wantRule: RuleTemplateMapping,
		},
		{
			name:     "habit flag wins over template set",
			m:        models.TemplateHabit{Habit: models.Habit{IsCore: boolPtr(false), TemplateSet: "75_hard"}},
			wantCore: false,
			wantRule: RuleHabitFlag,
		},
		{
			name:     "base hard set",
			m:        models.TemplateHabit{Habit: models.Habit{TemplateSet: "75_hard", Points: floatPtr(10)}},
			wantCore: true,
			wantRule: RuleBaseHardSet,
		},
		{
			name:     "plus set is not the base hard key",
			m:        models.TemplateHabit{Habit: models.Habit{TemplateSet: "75_hard_plus", Points: floatPtr(10)}},
			wantCore: false,
			wantRule: RuleDefaultBonus,
		},
		{
			name:     "core category",
			m:        models.TemplateHabit{Habit: models.Habit{Category: "core", Points: floatPtr(5)}},
			wantCore: true,
			wantRule: RuleCoreCategory,
		},
		{
			name:     "zero base points",
			m:        models.TemplateHabit{Habit: models.Habit{Category: "fitness", Points: floatPtr(0)}},
			wantCore: true,
			wantRule: RuleZeroPoints,
		},
		{
			name:     "missing points is not zero points",
			m:        models.TemplateHabit{Habit: models.Habit{Category: "fitness"}},
			wantCore: false,
			wantRule: RuleDefaultBonus,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			isCore, rule := ClassifyCore(tc.m)
			assert.Equal(t, tc.wantCore, isCore)
			assert.Equal(t, tc.wantRule, rule)
		})
	}
}

func TestEffectivePoints(t *testing.T) {
	p, err := EffectivePoints(floatPtr(15), floatPtr(10))
	require.NoError(t, err)
	assert.Equal(t, 15, p)

	p, err = EffectivePoints(nil, floatPtr(10))
	require.NoError(t, err)
	assert.Equal(t, 10, p)

	p, err = EffectivePoints(floatPtr(0), floatPtr(10))
	require.NoError(t, err)
	assert.Equal(t, 0, p, "a zero override is still an override")

	p, err = EffectivePoints(nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, p)

	for _, bad := range []float64{-5, math.NaN(), math.Inf(1)} {
		p, err = EffectivePoints(floatPtr(bad), floatPtr(10))
		assert.ErrorIs(t, err, apperrors.ErrInvalidPointsOverride)
		assert.Equal(t, 0, p)
	}
}

func TestResolve_OrderAndInvalid(t *testing.T) {
	tmpl := &models.Template{
		Habits: []models.TemplateHabit{
			func() models.TemplateHabit {
				m := mapping("h-late", models.Habit{Title: "Zeta", Points: floatPtr(5)})
				return m
			}(),
			func() models.TemplateHabit {
				m := mapping("h-second", models.Habit{Title: "Read", Points: floatPtr(10)})
				m.SortOrder = intPtr(2)
				return m
			}(),
			func() models.TemplateHabit {
				m := mapping("h-first", models.Habit{Title: "Water", Points: floatPtr(0)})
				m.SortOrder = intPtr(1)
				m.IsCore = boolPtr(true)
				return m
			}(),
			func() models.TemplateHabit {
				m := mapping("h-bad", models.Habit{Title: "Alpha", Points: floatPtr(10)})
				m.PointsOverride = floatPtr(-3)
				return m
			}(),
		},
	}

	res := Resolve(tmpl)

	ids := make([]string, 0, len(res.Habits))
	for _, h := range res.Habits {
		ids = append(ids, h.ID)
	}
	assert.Equal(t, []string{"h-first", "h-second", "h-bad", "h-late"}, ids)
	assert.Equal(t, []string{"h-bad"}, res.Invalid)

	bad, ok := res.Lookup("h-bad")
	require.True(t, ok)
	assert.Equal(t, 0, bad.EffectivePoints)
	assert.Len(t, res.Core(), 1)

	// Stable across repeated calls with identical inputs.
	for i := 0; i < 5; i++ {
		assert.Equal(t, res, Resolve(tmpl))
	}
}

func TestResolve_ForSelection(t *testing.T) {
	tmpl := &models.Template{Habits: []models.TemplateHabit{
		mapping("a", models.Habit{Title: "A", Points: floatPtr(1)}),
		mapping("b", models.Habit{Title: "B", Points: floatPtr(2)}),
		mapping("c", models.Habit{Title: "C", Points: floatPtr(3)}),
	}}

	sel := Resolve(tmpl).ForSelection([]string{"c", "a", "unknown"})

	require.Len(t, sel, 2)
	assert.Equal(t, "a", sel[0].ID)
	assert.Equal(t, "c", sel[1].ID)
}

func TestMode(t *testing.T) {
	assert.True(t, ModeHardPlus.RequiresCore())
	assert.True(t, ModeHardPlus.GrantsPhotoBonus())
	assert.True(t, ModeHardPlus.LocksCore())
	assert.False(t, ModeHard.RequiresCore())
	assert.True(t, ModeHard.LocksCore())
	assert.False(t, ModeCustom.LocksCore())
	assert.False(t, Mode("weekend").Valid())
}
