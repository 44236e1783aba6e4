package errors

import (
	stderrors "errors"
	"fmt"
)

type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on Code so derived errors compare equal to the sentinel they were built from.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Newf derives an error carrying the sentinel's code with a specific message.
func Newf(sentinel *AppError, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    sentinel.Code,
		Message: fmt.Sprintf(format, args...),
	}
}

// CodeOf returns the code of the first AppError in err's chain, or "" if there is none.
func CodeOf(err error) string {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

var (
	ErrConfigLoad      = "CONFIG_LOAD_ERROR"
	ErrDatabaseConnect = "DATABASE_CONNECT_ERROR"
	ErrStorage         = "STORAGE_ERROR"
	ErrChallenge       = "CHALLENGE_ERROR"
	ErrCheckin         = "CHECKIN_ERROR"
	ErrSelection       = "SELECTION_ERROR"
	ErrHeartsUpdate    = "HEARTS_UPDATE_ERROR"
	ErrRecalculation   = "RECALCULATION_ERROR"
	ErrMaintenance     = "MAINTENANCE_ERROR"
)

const (
	CodeInvalidDay            = "INVALID_DAY"
	CodeNoHabitsSelected      = "NO_HABITS_SELECTED"
	CodeSelectionFrozen       = "SELECTION_FROZEN"
	CodeInsufficientHearts    = "INSUFFICIENT_HEARTS"
	CodeDuplicateProtection   = "DUPLICATE_PROTECTION"
	CodeInvalidPointsOverride = "INVALID_POINTS_OVERRIDE"
	CodeHabitNotSelected      = "HABIT_NOT_SELECTED"
	CodeHeartSharingDisabled  = "HEART_SHARING_DISABLED"
	CodeNotMember             = "NOT_MEMBER"
	CodeAlreadyMember         = "ALREADY_MEMBER"
	CodeMemberEliminated      = "MEMBER_ELIMINATED"
	CodeNotFound              = "NOT_FOUND"
	CodeForbidden             = "FORBIDDEN"
	CodeInvalidArgument       = "INVALID_ARGUMENT"
)

// User-facing failures. None of them are fatal; callers surface the message and stop.
var (
	ErrInvalidDay            = New(CodeInvalidDay, "check-in day is not the current challenge day", nil)
	ErrNoHabitsSelected      = New(CodeNoHabitsSelected, "no habits selected for this challenge", nil)
	ErrSelectionFrozen       = New(CodeSelectionFrozen, "habit selection is frozen", nil)
	ErrInsufficientHearts    = New(CodeInsufficientHearts, "not enough hearts available", nil)
	ErrDuplicateProtection   = New(CodeDuplicateProtection, "day is already heart-protected", nil)
	ErrInvalidPointsOverride = New(CodeInvalidPointsOverride, "invalid points override", nil)
	ErrHabitNotSelected      = New(CodeHabitNotSelected, "habit is not part of the member selection", nil)
	ErrHeartSharingDisabled  = New(CodeHeartSharingDisabled, "heart sharing is disabled for this challenge", nil)
	ErrNotMember             = New(CodeNotMember, "user is not an active member of this challenge", nil)
	ErrAlreadyMember         = New(CodeAlreadyMember, "user is already a member of this challenge", nil)
	ErrMemberEliminated      = New(CodeMemberEliminated, "user was eliminated from this challenge", nil)
	ErrNotFound              = New(CodeNotFound, "not found", nil)
	ErrForbidden             = New(CodeForbidden, "operation requires the challenge admin", nil)
	ErrInvalidArgument       = New(CodeInvalidArgument, "invalid argument", nil)
)
