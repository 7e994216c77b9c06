package domain

import (
	"context"
	"time"
)

type AlarmResultRecord struct {
	RunID          string
	UserID         string
	ReminderID     string
	Mode           string
	Trigger        string
	FirstFireAt    time.Time
	ScheduledCount int
	FailedCount    int
	TrimmedCount   int
}

type AlarmResultRecorder interface {
	RecordResults(ctx context.Context, records []AlarmResultRecord) error
	Close() error
}
