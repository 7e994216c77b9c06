package domain

import (
	"context"
	"time"
)

//go:generate mockgen -source=alarm.go -destination=alarm_mock.go -package=domain

// AlarmMode is the scheduling state a reminder is in.
type AlarmMode string

const (
	AlarmModeIdle         AlarmMode = "idle"
	AlarmModeSingleShot   AlarmMode = "single_shot"
	AlarmModeForeverBatch AlarmMode = "forever_batch"
)

func (m AlarmMode) String() string {
	return string(m)
}

// ModeOf classifies a reminder. A nil reminder is idle.
func ModeOf(r *Reminder) AlarmMode {
	if r == nil || r.IsComplete {
		return AlarmModeIdle
	}
	if r.IsForever() {
		return AlarmModeForeverBatch
	}
	return AlarmModeSingleShot
}

type AlarmPayload struct {
	ReminderID    string     `json:"reminder_id"`
	UserID        string     `json:"user_id"`
	Title         string     `json:"title,omitempty"`
	Body          string     `json:"body,omitempty"`
	Sound         string     `json:"sound,omitempty"`
	IsLastInBatch bool       `json:"is_last_in_batch,omitempty"`
	NextStart     *time.Time `json:"next_start,omitempty"`
	Generation    uint64     `json:"generation,omitempty"`
}

type Alarm struct {
	ID      string       `json:"id"`
	UserID  string       `json:"user_id"`
	FireAt  time.Time    `json:"fire_at"`
	Payload AlarmPayload `json:"payload"`
}

type PendingAlarm struct {
	ID     string    `json:"id"`
	FireAt time.Time `json:"fire_at"`
}

// PlatformScheduler is the substrate that holds pending alarms for a user and
// fires them. Cancel must not fail on identifiers that do not exist.
type PlatformScheduler interface {
	Schedule(ctx context.Context, alarm Alarm) error
	Cancel(ctx context.Context, userID string, alarmIDs []string) error
	ListPending(ctx context.Context, userID string) ([]PendingAlarm, error)
}

// FiredHandler receives alarms as the platform delivers them.
type FiredHandler interface {
	HandleFired(ctx context.Context, alarmID string, payload AlarmPayload) error
}
