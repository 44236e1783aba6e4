package streak

import "sort"

type DayStatus string

const (
	DayCheckedIn DayStatus = "checked_in"
	DayProtected DayStatus = "protected"
	DayMissed    DayStatus = "missed"
)

// Continuity is the derived streak state of a membership on a given day.
type Continuity struct {
	CurrentDay    int   `json:"current_day"`
	CurrentStreak int   `json:"current_streak"`
	MissedDays    []int `json:"missed_days"`
	ProtectedDays []int `json:"protected_days"`
}

func toSet(days []int) map[int]bool {
	s := make(map[int]bool, len(days))
	for _, d := range days {
		s[d] = true
	}
	return s
}

// Classify reports the status of a past day. A day is missed iff it has no
// check-in and is not heart-protected.
func Classify(day int, checkedIn, protected map[int]bool) DayStatus {
	switch {
	case checkedIn[day]:
		return DayCheckedIn
	case protected[day]:
		return DayProtected
	default:
		return DayMissed
	}
}

// Evaluate recomputes continuity from the check-in and protection logs.
// Days 1..currentDay-1 are classified; the streak counts consecutive
// checked-in or protected days scanning back from currentDay-1, plus today
// once today is checked in. An unchecked today never breaks the streak.
func Evaluate(currentDay int, checkedInDays, protectedDays []int) Continuity {
	if currentDay < 1 {
		currentDay = 1
	}
	checked := toSet(checkedInDays)
	protected := toSet(protectedDays)

	c := Continuity{CurrentDay: currentDay, MissedDays: []int{}, ProtectedDays: []int{}}
	for day := 1; day < currentDay; day++ {
		switch Classify(day, checked, protected) {
		case DayMissed:
			c.MissedDays = append(c.MissedDays, day)
		case DayProtected:
			c.ProtectedDays = append(c.ProtectedDays, day)
		}
	}

	if checked[currentDay] {
		c.CurrentStreak++
	}
	for day := currentDay - 1; day >= 1; day-- {
		if Classify(day, checked, protected) == DayMissed {
			break
		}
		c.CurrentStreak++
	}
	sort.Ints(c.MissedDays)
	return c
}

// ProtectionCandidate returns the day an automatic heart may protect: only
// the immediately preceding day, only if it was missed, only with a heart
// available. Older gaps are never candidates.
func ProtectionCandidate(currentDay int, checkedInDays, protectedDays []int, heartsAvailable int) (int, bool) {
	day := currentDay - 1
	if day < 1 || heartsAvailable <= 0 {
		return 0, false
	}
	if Classify(day, toSet(checkedInDays), toSet(protectedDays)) != DayMissed {
		return 0, false
	}
	return day, true
}
