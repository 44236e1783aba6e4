package streak

import (
	"math"
	"sort"

	"github.com/appsparrow/streakzilla/internal/models"
	apperrors "github.com/appsparrow/streakzilla/pkg/errors"
)

// ResolvedHabit is a template habit with its classification and point value settled.
type ResolvedHabit struct {
	ID              string `json:"id"`
	Title           string `json:"title"`
	Category        string `json:"category"`
	IsCore          bool   `json:"is_core"`
	EffectivePoints int    `json:"effective_points"`
	CoreRule        string `json:"core_rule"`
}

// Resolution is the ordered habit set of a template. Invalid lists the ids
// whose point values failed validation and were resolved to 0.
type Resolution struct {
	Habits  []ResolvedHabit
	Invalid []string
}

// Core classification rules in precedence order. The first rule that
// matches decides; historical habits depend on this exact order.
const (
	RuleTemplateMapping = "template_mapping"
	RuleHabitFlag       = "habit_flag"
	RuleBaseHardSet     = "base_hard_set"
	RuleCoreCategory    = "core_category"
	RuleZeroPoints      = "zero_points"
	RuleDefaultBonus    = "default_bonus"
)

type coreRule struct {
	name  string
	match func(m models.TemplateHabit) (isCore, ok bool)
}

var coreRules = []coreRule{
	{RuleTemplateMapping, func(m models.TemplateHabit) (bool, bool) {
		if m.IsCore == nil {
			return false, false
		}
		return *m.IsCore, true
	}},
	{RuleHabitFlag, func(m models.TemplateHabit) (bool, bool) {
		if m.Habit.IsCore == nil {
			return false, false
		}
		return *m.Habit.IsCore, true
	}},
	{RuleBaseHardSet, func(m models.TemplateHabit) (bool, bool) {
		return true, m.Habit.TemplateSet == string(ModeHard)
	}},
	{RuleCoreCategory, func(m models.TemplateHabit) (bool, bool) {
		return true, m.Habit.Category == "core"
	}},
	{RuleZeroPoints, func(m models.TemplateHabit) (bool, bool) {
		return true, m.Habit.Points != nil && *m.Habit.Points == 0
	}},
}

// ClassifyCore applies the core rules to a template mapping and reports the rule that decided.
func ClassifyCore(m models.TemplateHabit) (bool, string) {
	for _, r := range coreRules {
		if isCore, ok := r.match(m); ok {
			return isCore, r.name
		}
	}
	return false, RuleDefaultBonus
}

// EffectivePoints returns the override when present, else the base points.
// The result is a non-negative integer; NaN, infinities and negatives
// resolve to 0 with ErrInvalidPointsOverride.
func EffectivePoints(override, base *float64) (int, error) {
	v := base
	if override != nil {
		v = override
	}
	if v == nil {
		return 0, nil
	}
	f := *v
	if math.IsNaN(f) || math.IsInf(f, 0) || f < 0 {
		return 0, apperrors.Newf(apperrors.ErrInvalidPointsOverride, "points value %v resolved to 0", f)
	}
	return int(math.Round(f)), nil
}

// Resolve orders the template's habits by sort order (nulls last, then
// title, then id) and classifies each one.
func Resolve(t *models.Template) Resolution {
	var res Resolution
	if t == nil {
		return res
	}

	mappings := make([]models.TemplateHabit, len(t.Habits))
	copy(mappings, t.Habits)
	sort.SliceStable(mappings, func(i, j int) bool {
		a, b := mappings[i], mappings[j]
		switch {
		case a.SortOrder != nil && b.SortOrder != nil && *a.SortOrder != *b.SortOrder:
			return *a.SortOrder < *b.SortOrder
		case a.SortOrder != nil && b.SortOrder == nil:
			return true
		case a.SortOrder == nil && b.SortOrder != nil:
			return false
		}
		if a.Habit.Title != b.Habit.Title {
			return a.Habit.Title < b.Habit.Title
		}
		return a.HabitID < b.HabitID
	})

	res.Habits = make([]ResolvedHabit, 0, len(mappings))
	for _, m := range mappings {
		isCore, rule := ClassifyCore(m)
		points, err := EffectivePoints(m.PointsOverride, m.Habit.Points)
		if err != nil {
			res.Invalid = append(res.Invalid, m.HabitID)
		}
		res.Habits = append(res.Habits, ResolvedHabit{
			ID:              m.HabitID,
			Title:           m.Habit.Title,
			Category:        m.Habit.Category,
			IsCore:          isCore,
			EffectivePoints: points,
			CoreRule:        rule,
		})
	}
	return res
}

// Core returns the core habits of the resolution.
func (r Resolution) Core() []ResolvedHabit {
	var out []ResolvedHabit
	for _, h := range r.Habits {
		if h.IsCore {
			out = append(out, h)
		}
	}
	return out
}

func (r Resolution) Lookup(id string) (ResolvedHabit, bool) {
	for _, h := range r.Habits {
		if h.ID == id {
			return h, true
		}
	}
	return ResolvedHabit{}, false
}

// ForSelection narrows the resolution to the member's selected habits, in
// template order. Selected ids unknown to the template are dropped.
func (r Resolution) ForSelection(selected []string) []ResolvedHabit {
	want := make(map[string]bool, len(selected))
	for _, id := range selected {
		want[id] = true
	}
	out := make([]ResolvedHabit, 0, len(selected))
	for _, h := range r.Habits {
		if want[h.ID] {
			out = append(out, h)
		}
	}
	return out
}
