package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIs_MatchesOnCode(t *testing.T) {
	derived := Newf(ErrInvalidDay, "day %d is not today (%d)", 4, 5)

	assert.True(t, stderrors.Is(derived, ErrInvalidDay))
	assert.False(t, stderrors.Is(derived, ErrSelectionFrozen))
	assert.Equal(t, "[INVALID_DAY] day 4 is not today (5)", derived.Error())
}

func TestIs_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("check-in: %w", ErrNoHabitsSelected)

	assert.True(t, stderrors.Is(wrapped, ErrNoHabitsSelected))
	assert.Equal(t, CodeNoHabitsSelected, CodeOf(wrapped))
	assert.Equal(t, "", CodeOf(stderrors.New("plain")))
}

func TestUnwrap_ExposesCause(t *testing.T) {
	cause := stderrors.New("connection reset")
	err := New(ErrDatabaseConnect, "failed to open database", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}
