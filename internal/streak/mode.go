// Package streak holds the rules of the streak engine: habit resolution,
// day numbering, check-in scoring, continuity and the hearts fold. Nothing
// here performs I/O; callers pass in logs and an explicit "now".
package streak

import "strings"

// Mode is a challenge mode key.
type Mode string

const (
	// ModeHard is the base hard-mode key; legacy habits tagged with this
	// template set are core.
	ModeHard     Mode = "75_hard"
	ModeHardPlus Mode = "75_hard_plus"
	ModeCustom   Mode = "custom"
)

var knownModes = map[Mode]bool{
	ModeHard:     true,
	ModeHardPlus: true,
	ModeCustom:   true,
}

func (m Mode) Valid() bool {
	return knownModes[m]
}

// RequiresCore reports a "plus" variant: core habits are mandatory and
// score nothing, only bonus habits earn points.
func (m Mode) RequiresCore() bool {
	return strings.Contains(string(m), "plus")
}

// GrantsPhotoBonus reports whether a progress photo earns the daily photo bonus.
func (m Mode) GrantsPhotoBonus() bool {
	return m.RequiresCore()
}

// LocksCore reports a hard mode, where core habits are always selected.
func (m Mode) LocksCore() bool {
	return strings.HasPrefix(string(m), string(ModeHard))
}
