package alarm

import (
	"time"

	"github.com/AdheeshBhat/Remora/internal/domain"
)

const (
	DefaultMaxBatch        = 50
	DefaultSingleShotCap   = 100
	DefaultRefillThreshold = 10

	TriggerCreate  = "schedule"
	TriggerCancel  = "cancel"
	TriggerRefill  = "refill"
	TriggerRefresh = "refresh"
)

type Settings struct {
	MaxBatch        int
	SingleShotCap   int
	RefillThreshold int
	Sound           string
	Clock           func() time.Time
}

func (s Settings) withDefaults() Settings {
	if s.MaxBatch <= 0 {
		s.MaxBatch = DefaultMaxBatch
	}
	if s.SingleShotCap <= 0 {
		s.SingleShotCap = DefaultSingleShotCap
	}
	if s.RefillThreshold <= 0 {
		s.RefillThreshold = DefaultRefillThreshold
	}
	if s.Clock == nil {
		s.Clock = time.Now
	}
	return s
}

// cancelRange covers every index any mode may have used.
func (s Settings) cancelRange() int {
	return max(s.MaxBatch, s.SingleShotCap)
}

type Result struct {
	ReminderID     string           `json:"reminder_id"`
	Mode           domain.AlarmMode `json:"mode"`
	Trigger        string           `json:"trigger"`
	ScheduledCount int              `json:"scheduled_count"`
	FailedCount    int              `json:"failed_count"`
	TrimmedCount   int              `json:"trimmed_count"`
	FirstFireAt    *time.Time       `json:"first_fire_at,omitempty"`
	NextStart      *time.Time       `json:"next_start,omitempty"`
	Skipped        bool             `json:"skipped"`
	SkipReason     string           `json:"skip_reason,omitempty"`
}

func skipped(reminderID string, mode domain.AlarmMode, trigger, reason string) *Result {
	return &Result{
		ReminderID: reminderID,
		Mode:       mode,
		Trigger:    trigger,
		Skipped:    true,
		SkipReason: reason,
	}
}

type RefreshResult struct {
	PendingCount   int      `json:"pending_count"`
	ExpiredCount   int      `json:"expired_count"`
	Triggered      bool     `json:"triggered"`
	ProcessedCount int      `json:"processed_count"`
	SuccessCount   int      `json:"success_count"`
	FailedCount    int      `json:"failed_count"`
	SkippedCount   int      `json:"skipped_count"`
	Results        []Result `json:"results"`
}
