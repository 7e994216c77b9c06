package domain

import "errors"

var (
	ErrReminderNotFound      = errors.New("reminder not found")
	ErrInvalidUntilDate      = errors.New("invalid until date")
	ErrMissingCustomPatterns = errors.New("custom recurrence requires at least one pattern")
	ErrInvalidPriority       = errors.New("invalid priority")
	ErrUnknownField          = errors.New("unknown reminder field")
	ErrInvalidFieldValue     = errors.New("invalid reminder field value")
	ErrPlatformCeiling       = errors.New("platform pending alarm ceiling reached")
	ErrAlarmNotFound         = errors.New("alarm not found")
)
