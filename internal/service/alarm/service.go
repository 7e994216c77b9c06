package alarm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AdheeshBhat/Remora/internal/domain"
	"github.com/AdheeshBhat/Remora/internal/observability/metrics"
	"github.com/AdheeshBhat/Remora/internal/observability/tracing"
	"github.com/AdheeshBhat/Remora/internal/service/capacity"
	"github.com/AdheeshBhat/Remora/internal/service/occurrence"
	"github.com/google/uuid"
)

type Service struct {
	repo         domain.ReminderRepository
	platform     domain.PlatformScheduler
	capacity     *capacity.Calculator
	recorder     domain.AlarmResultRecorder
	alarmMetrics *metrics.AlarmMetrics
	settings     Settings
	states       *stateTable
}

func NewService(
	repo domain.ReminderRepository,
	platform domain.PlatformScheduler,
	calculator *capacity.Calculator,
	recorder domain.AlarmResultRecorder,
	alarmMetrics *metrics.AlarmMetrics,
	settings Settings,
) *Service {
	return &Service{
		repo:         repo,
		platform:     platform,
		capacity:     calculator,
		recorder:     recorder,
		alarmMetrics: alarmMetrics,
		settings:     settings.withDefaults(),
		states:       newStateTable(),
	}
}

// Mode reports the scheduling mode last applied to a reminder.
func (s *Service) Mode(userID, reminderID string) domain.AlarmMode {
	return s.states.Mode(userID, reminderID)
}

// Schedule replaces every pending alarm of the reminder with a fresh set
// derived from its current rule. Old identifiers are cancelled before any new
// one is registered; a failed cancel aborts without scheduling.
func (s *Service) Schedule(ctx context.Context, r *domain.Reminder) (*Result, error) {
	ctx, span := tracing.StartScheduleSpan(ctx, r.ID, TriggerCreate)
	defer span.End()

	st := s.states.get(r.UserID, r.ID)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.generation++
	if err := s.cancelAll(ctx, r.UserID, BaseID(r.ID), TriggerCreate); err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	mode := domain.ModeOf(r)
	st.mode = mode

	now := s.settings.Clock()
	var result *Result
	switch mode {
	case domain.AlarmModeSingleShot:
		result = s.scheduleSingleShot(ctx, r, now)
	case domain.AlarmModeForeverBatch:
		start, ok := occurrence.NextAfter(r, now.Add(-time.Nanosecond))
		if !ok {
			result = skipped(r.ID, mode, TriggerCreate, "no upcoming occurrence")
			break
		}
		result = s.scheduleBatch(ctx, r, start, st.generation, TriggerCreate, s.capacity.Available(ctx, r.UserID, now))
	default:
		result = skipped(r.ID, mode, TriggerCreate, "reminder is complete")
	}

	tracing.RecordScheduleResult(span, mode.String(), result.ScheduledCount, result.FailedCount, result.TrimmedCount, nil)
	s.record(ctx, r.UserID, []Result{*result})
	return result, nil
}

// Cancel removes every alarm the reminder may own and marks it idle.
func (s *Service) Cancel(ctx context.Context, userID, reminderID string) error {
	ctx, span := tracing.StartScheduleSpan(ctx, reminderID, TriggerCancel)
	defer span.End()

	st := s.states.get(userID, reminderID)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.generation++
	st.mode = domain.AlarmModeIdle
	err := s.cancelAll(ctx, userID, BaseID(reminderID), TriggerCancel)
	tracing.RecordError(span, err)
	return err
}

func (s *Service) cancelAll(ctx context.Context, userID, baseID, trigger string) error {
	return s.cancelIDs(ctx, userID, AllIDs(baseID, s.settings.cancelRange()), trigger)
}

func (s *Service) cancelIDs(ctx context.Context, userID string, ids []string, trigger string) error {
	ctx, span := tracing.StartPlatformSpan(ctx, "cancel", len(ids))
	defer span.End()

	if err := s.platform.Cancel(ctx, userID, ids); err != nil {
		slog.ErrorContext(ctx, "failed to cancel alarms",
			slog.String("user_id", userID),
			slog.String("trigger", trigger),
			slog.Int("alarm_count", len(ids)),
			slog.String("error", err.Error()),
		)
		tracing.RecordError(span, err)
		return fmt.Errorf("failed to cancel alarms: %w", err)
	}

	if s.alarmMetrics != nil {
		s.alarmMetrics.RecordAlarmsCancelled(ctx, trigger, len(ids))
	}
	return nil
}

func (s *Service) scheduleSingleShot(ctx context.Context, r *domain.Reminder, now time.Time) *Result {
	result := &Result{
		ReminderID: r.ID,
		Mode:       domain.AlarmModeSingleShot,
		Trigger:    TriggerCreate,
	}

	triggers := occurrence.Triggers(r, now, s.settings.SingleShotCap)
	if len(triggers) == 0 {
		result.Skipped = true
		result.SkipReason = "no upcoming occurrence"
		return result
	}

	available := s.capacity.Available(ctx, r.UserID, now)
	if len(triggers) > available {
		result.TrimmedCount = len(triggers) - available
		triggers = triggers[:available]
		slog.WarnContext(ctx, "platform ceiling reached, trimming single-shot alarms",
			slog.String("reminder_id", r.ID),
			slog.Int("trimmed_count", result.TrimmedCount),
		)
	}

	base := BaseID(r.ID)
	for i, at := range triggers {
		alarm := domain.Alarm{
			ID:      AlarmID(base, i),
			UserID:  r.UserID,
			FireAt:  at,
			Payload: s.payload(r),
		}
		s.submit(ctx, alarm, result)
	}
	return result
}

// scheduleBatch registers up to MaxBatch forever alarms starting at start.
// The last alarm carries the resume point and the generation it belongs to.
func (s *Service) scheduleBatch(ctx context.Context, r *domain.Reminder, start time.Time, generation uint64, trigger string, available int) *Result {
	result := &Result{
		ReminderID: r.ID,
		Mode:       domain.AlarmModeForeverBatch,
		Trigger:    trigger,
	}

	size := min(s.settings.MaxBatch, available)
	if size <= 0 {
		result.Skipped = true
		result.SkipReason = "no platform capacity"
		slog.WarnContext(ctx, "no platform capacity for forever batch",
			slog.String("reminder_id", r.ID),
			slog.String("user_id", r.UserID),
		)
		return result
	}

	fireTimes := s.batchTimes(r, start, size)
	if len(fireTimes) == 0 {
		result.Skipped = true
		result.SkipReason = "no upcoming occurrence"
		return result
	}

	next, hasNext := occurrence.NextAfter(r, fireTimes[len(fireTimes)-1])
	for hasNext && r.IsDeleted(next) {
		next, hasNext = occurrence.NextAfter(r, next)
	}

	base := BaseID(r.ID)
	for i, at := range fireTimes {
		payload := s.payload(r)
		if i == len(fireTimes)-1 && hasNext {
			nextStart := next
			payload.IsLastInBatch = true
			payload.NextStart = &nextStart
			payload.Generation = generation
			result.NextStart = &nextStart
		}
		s.submit(ctx, domain.Alarm{
			ID:      AlarmID(base, i),
			UserID:  r.UserID,
			FireAt:  at,
			Payload: payload,
		}, result)
	}

	slog.InfoContext(ctx, "scheduled forever batch",
		slog.String("reminder_id", r.ID),
		slog.String("trigger", trigger),
		slog.Int("scheduled_count", result.ScheduledCount),
		slog.Int("failed_count", result.FailedCount),
		slog.Bool("has_next", hasNext),
	)
	return result
}

// batchTimes walks occurrences from start (inclusive), skipping deleted
// instances, until size fire times are collected.
func (s *Service) batchTimes(r *domain.Reminder, start time.Time, size int) []time.Time {
	out := make([]time.Time, 0, size)
	budget := size + len(r.DeletedInstances) + 1
	cursor := start.Add(-time.Nanosecond)

	for i := 0; i < budget && len(out) < size; i++ {
		next, ok := occurrence.NextAfter(r, cursor)
		if !ok || !next.After(cursor) {
			break
		}
		cursor = next
		if r.IsDeleted(next) {
			continue
		}
		out = append(out, next)
	}
	return out
}

func (s *Service) payload(r *domain.Reminder) domain.AlarmPayload {
	return domain.AlarmPayload{
		ReminderID: r.ID,
		UserID:     r.UserID,
		Title:      r.Title,
		Body:       r.Description,
		Sound:      SoundFile(s.settings.Sound),
	}
}

// submit registers one alarm. Failures are counted and logged; siblings are
// still attempted.
func (s *Service) submit(ctx context.Context, alarm domain.Alarm, result *Result) {
	ctx, span := tracing.StartPlatformSpan(ctx, "schedule", 1)
	defer span.End()

	err := s.platform.Schedule(ctx, alarm)
	tracing.RecordError(span, err)

	outcome := "success"
	if err != nil {
		outcome = "failed"
		result.FailedCount++
		slog.ErrorContext(ctx, "failed to schedule alarm",
			slog.String("alarm_id", alarm.ID),
			slog.String("reminder_id", alarm.Payload.ReminderID),
			slog.Time("fire_at", alarm.FireAt),
			slog.String("error", err.Error()),
		)
	} else {
		result.ScheduledCount++
		if result.FirstFireAt == nil {
			at := alarm.FireAt
			result.FirstFireAt = &at
		}
	}

	if s.alarmMetrics != nil {
		s.alarmMetrics.RecordAlarmScheduled(ctx, result.Mode.String(), outcome)
	}
}

func (s *Service) record(ctx context.Context, userID string, results []Result) {
	if s.recorder == nil || len(results) == 0 {
		return
	}

	runID := uuid.NewString()
	records := make([]domain.AlarmResultRecord, 0, len(results))
	for _, r := range results {
		if r.Skipped {
			continue
		}
		rec := domain.AlarmResultRecord{
			RunID:          runID,
			UserID:         userID,
			ReminderID:     r.ReminderID,
			Mode:           r.Mode.String(),
			Trigger:        r.Trigger,
			ScheduledCount: r.ScheduledCount,
			FailedCount:    r.FailedCount,
			TrimmedCount:   r.TrimmedCount,
		}
		if r.FirstFireAt != nil {
			rec.FirstFireAt = *r.FirstFireAt
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return
	}

	if err := s.recorder.RecordResults(ctx, records); err != nil {
		slog.WarnContext(ctx, "failed to record alarm results",
			slog.String("run_id", runID),
			slog.String("error", err.Error()),
		)
	}
}
