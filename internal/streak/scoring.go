package streak

// DayScore is the value of one day's check-in.
type DayScore struct {
	Points          int
	BonusPoints     int
	PhotoBonus      int
	AllCoreComplete bool
}

// ScoreDay scores a full day's completed habits against the member's
// selection. In "plus" modes core habits score 0; in other modes every
// completed habit scores its effective points. BonusPoints counts non-core
// habit points plus the photo bonus and is what hearts are minted from.
// Completed ids outside the selection score nothing.
func ScoreDay(mode Mode, selection []ResolvedHabit, completed []string, photoBonusAwarded bool, photoBonusPoints int) DayScore {
	done := make(map[string]bool, len(completed))
	for _, id := range completed {
		done[id] = true
	}

	score := DayScore{AllCoreComplete: true}
	for _, h := range selection {
		if !done[h.ID] {
			if h.IsCore {
				score.AllCoreComplete = false
			}
			continue
		}
		switch {
		case h.IsCore && mode.RequiresCore():
		case h.IsCore:
			score.Points += h.EffectivePoints
		default:
			score.Points += h.EffectivePoints
			score.BonusPoints += h.EffectivePoints
		}
	}

	if photoBonusAwarded && mode.GrantsPhotoBonus() {
		score.PhotoBonus = photoBonusPoints
		score.Points += photoBonusPoints
		score.BonusPoints += photoBonusPoints
	}
	return score
}

// Submission is an additive check-in request against an existing day.
type Submission struct {
	Completed []string
	HasPhoto  bool
}

// Merge is the outcome of applying a submission to a day.
type Merge struct {
	Completed         []string
	Added             []string
	PhotoBonusAwarded bool
	Score             DayScore
}

// MergeDay applies a submission on top of already-completed habits.
// Completed habits are immutable; re-submitting them is a no-op, and the
// photo bonus is granted at most once per day.
func MergeDay(mode Mode, selection []ResolvedHabit, existing []string, existingPhotoBonus bool, sub Submission, photoBonusPoints int) Merge {
	seen := make(map[string]bool, len(existing)+len(sub.Completed))
	merged := make([]string, 0, len(existing)+len(sub.Completed))
	for _, id := range existing {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	var added []string
	for _, id := range sub.Completed {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
			added = append(added, id)
		}
	}

	photo := existingPhotoBonus || (sub.HasPhoto && mode.GrantsPhotoBonus())
	return Merge{
		Completed:         merged,
		Added:             added,
		PhotoBonusAwarded: photo,
		Score:             ScoreDay(mode, selection, merged, photo, photoBonusPoints),
	}
}
