package alarm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cloud.google.com/go/civil"
	"github.com/AdheeshBhat/Remora/internal/domain"
	"github.com/AdheeshBhat/Remora/internal/observability/tracing"
	"github.com/AdheeshBhat/Remora/internal/service/occurrence"
)

var _ domain.FiredHandler = (*Service)(nil)

const (
	refillScheduled  = "scheduled"
	refillStale      = "stale"
	refillNotFound   = "not_found"
	refillFetchError = "fetch_error"
	refillCancelFail = "cancel_failed"
	refillComplete   = "complete"
	refillEnded      = "ended"
	refillNotForever = "not_forever"
	refillExhausted  = "exhausted"
)

// HandleFired reacts to a delivered alarm. Only the last alarm of a forever
// batch does anything: it re-reads the reminder and schedules the next batch
// from the carried resume point. Every failure is contained here.
func (s *Service) HandleFired(ctx context.Context, alarmID string, payload domain.AlarmPayload) error {
	if !payload.IsLastInBatch || payload.NextStart == nil {
		slog.DebugContext(ctx, "alarm fired",
			slog.String("alarm_id", alarmID),
			slog.String("reminder_id", payload.ReminderID),
		)
		return nil
	}

	nextStart := *payload.NextStart
	ctx, span := tracing.StartRefillSpan(ctx, payload.ReminderID, nextStart)
	defer span.End()

	outcome, result := s.refill(ctx, alarmID, payload, nextStart)
	if s.alarmMetrics != nil {
		s.alarmMetrics.RecordBatchRefill(ctx, outcome)
	}
	if result != nil {
		tracing.RecordScheduleResult(span, result.Mode.String(), result.ScheduledCount, result.FailedCount, result.TrimmedCount, nil)
		s.record(ctx, payload.UserID, []Result{*result})
	}
	return nil
}

func (s *Service) refill(ctx context.Context, alarmID string, payload domain.AlarmPayload, nextStart time.Time) (string, *Result) {
	st := s.states.get(payload.UserID, payload.ReminderID)
	st.mu.Lock()
	defer st.mu.Unlock()

	// A zero generation means this process has not scheduled the reminder
	// yet, e.g. after a restart; the payload is accepted.
	if st.generation != 0 && payload.Generation != st.generation {
		slog.InfoContext(ctx, "discarding stale batch callback",
			slog.String("alarm_id", alarmID),
			slog.String("reminder_id", payload.ReminderID),
			slog.Uint64("payload_generation", payload.Generation),
			slog.Uint64("current_generation", st.generation),
		)
		return refillStale, nil
	}

	r, err := s.repo.Get(ctx, payload.UserID, payload.ReminderID)
	if err != nil {
		if errors.Is(err, domain.ErrReminderNotFound) {
			slog.InfoContext(ctx, "reminder gone, stopping refill",
				slog.String("reminder_id", payload.ReminderID),
			)
			st.mode = domain.AlarmModeIdle
			return refillNotFound, nil
		}
		slog.ErrorContext(ctx, "failed to fetch reminder for refill",
			slog.String("reminder_id", payload.ReminderID),
			slog.String("error", err.Error()),
		)
		return refillFetchError, nil
	}
	if r.IsComplete {
		st.mode = domain.AlarmModeIdle
		return refillComplete, nil
	}
	if !r.IsForever() {
		slog.InfoContext(ctx, "reminder no longer repeats forever, stopping refill",
			slog.String("reminder_id", r.ID),
			slog.String("until", r.Recurrence.Until.String()),
		)
		st.mode = domain.AlarmModeIdle
		return refillNotForever, nil
	}
	if r.Recurrence.Until.Excludes(civil.DateOf(nextStart.In(r.Anchor.Location()))) {
		slog.InfoContext(ctx, "reminder ended before resume point, stopping refill",
			slog.String("reminder_id", r.ID),
			slog.String("until", r.Recurrence.Until.String()),
			slog.Time("next_start", nextStart),
		)
		st.mode = domain.AlarmModeIdle
		return refillEnded, nil
	}

	now := s.settings.Clock()
	start := nextStart
	if start.Before(now) {
		next, ok := occurrence.NextAfter(r, now.Add(-time.Nanosecond))
		if !ok {
			return refillExhausted, nil
		}
		start = next
	}

	if err := s.cancelIDs(ctx, r.UserID, IndexedIDs(BaseID(r.ID), s.settings.MaxBatch), TriggerRefill); err != nil {
		return refillCancelFail, nil
	}

	st.generation++
	st.mode = domain.AlarmModeForeverBatch
	result := s.scheduleBatch(ctx, r, start, st.generation, TriggerRefill, s.capacity.Available(ctx, r.UserID, now))
	if result.Skipped {
		return refillExhausted, result
	}
	return refillScheduled, result
}
