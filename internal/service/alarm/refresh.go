package alarm

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/AdheeshBhat/Remora/internal/domain"
	"github.com/AdheeshBhat/Remora/internal/observability/tracing"
	"github.com/AdheeshBhat/Remora/internal/service/occurrence"
)

type refreshCandidate struct {
	reminder   domain.Reminder
	generation uint64
}

// Refresh tops up the forever batches of a user when fewer than
// RefillThreshold live alarms remain. It is safe to call redundantly.
func (s *Service) Refresh(ctx context.Context, userID string) (*RefreshResult, error) {
	ctx, span := tracing.StartRefreshSpan(ctx, userID)
	defer span.End()

	now := s.settings.Clock()
	live, expired, refill, err := s.capacity.NeedsRefill(ctx, userID, now, s.settings.RefillThreshold)
	if err != nil {
		slog.ErrorContext(ctx, "failed to inspect pending alarms",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		tracing.RecordError(span, err)
		return nil, fmt.Errorf("failed to inspect pending alarms: %w", err)
	}

	resp := &RefreshResult{
		PendingCount: live + expired,
		ExpiredCount: expired,
		Triggered:    refill,
		Results:      []Result{},
	}
	if s.alarmMetrics != nil {
		s.alarmMetrics.RecordRefreshRun(ctx, refill)
	}

	slog.InfoContext(ctx, "refresh check",
		slog.String("user_id", userID),
		slog.Int("pending_count", resp.PendingCount),
		slog.Int("expired_count", expired),
		slog.Bool("triggered", refill),
	)

	if !refill {
		tracing.RecordRefreshResult(span, resp.PendingCount, expired, false, 0, 0, nil)
		return resp, nil
	}

	reminders, err := s.repo.ListForever(ctx, userID)
	if err != nil {
		slog.ErrorContext(ctx, "failed to list forever reminders",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		tracing.RecordRefreshResult(span, resp.PendingCount, expired, true, 0, 0, err)
		return nil, fmt.Errorf("failed to list forever reminders: %w", err)
	}

	candidates := s.releaseBatches(ctx, userID, reminders, resp)
	s.rebuildBatches(ctx, userID, candidates, now, resp)

	for _, r := range resp.Results {
		switch {
		case r.Skipped:
			resp.SkippedCount++
		case r.FailedCount > 0:
			resp.FailedCount++
		default:
			resp.SuccessCount++
		}
	}
	resp.ProcessedCount = len(resp.Results)

	s.record(ctx, userID, resp.Results)
	tracing.RecordRefreshResult(span, resp.PendingCount, expired, true, resp.ProcessedCount, resp.FailedCount, nil)
	return resp, nil
}

// releaseBatches cancels the batch range of every forever reminder first so
// the freed slots are visible before any reminder is rebuilt.
func (s *Service) releaseBatches(ctx context.Context, userID string, reminders map[string]domain.Reminder, resp *RefreshResult) []refreshCandidate {
	ids := make([]string, 0, len(reminders))
	for id := range reminders {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	candidates := make([]refreshCandidate, 0, len(ids))
	for _, id := range ids {
		r := reminders[id]
		r.ID = id
		if r.UserID == "" {
			r.UserID = userID
		}

		st := s.states.get(userID, id)
		st.mu.Lock()
		st.generation++
		err := s.cancelIDs(ctx, userID, IndexedIDs(BaseID(id), s.settings.MaxBatch), TriggerRefresh)
		gen := st.generation
		st.mu.Unlock()

		if err != nil {
			resp.Results = append(resp.Results, Result{
				ReminderID:  id,
				Mode:        domain.AlarmModeForeverBatch,
				Trigger:     TriggerRefresh,
				FailedCount: 1,
			})
			continue
		}
		candidates = append(candidates, refreshCandidate{reminder: r, generation: gen})
	}
	return candidates
}

// rebuildBatches hands each reminder an even share of the remaining
// capacity. A reminder rescheduled concurrently since release is left alone.
func (s *Service) rebuildBatches(ctx context.Context, userID string, candidates []refreshCandidate, now time.Time, resp *RefreshResult) {
	for i, c := range candidates {
		r := c.reminder

		st := s.states.get(userID, r.ID)
		st.mu.Lock()

		var result *Result
		switch {
		case st.generation != c.generation:
			result = skipped(r.ID, st.mode, TriggerRefresh, "superseded")
		case domain.ModeOf(&r) != domain.AlarmModeForeverBatch:
			st.mode = domain.ModeOf(&r)
			result = skipped(r.ID, st.mode, TriggerRefresh, "not a forever reminder")
		default:
			st.mode = domain.AlarmModeForeverBatch
			start, ok := occurrence.NextAfter(&r, now.Add(-time.Nanosecond))
			if !ok {
				result = skipped(r.ID, st.mode, TriggerRefresh, "no upcoming occurrence")
				break
			}
			result = s.scheduleBatch(ctx, &r, start, st.generation, TriggerRefresh, s.share(ctx, userID, now, len(candidates)-i))
		}

		st.mu.Unlock()
		resp.Results = append(resp.Results, *result)
	}
}

func (s *Service) share(ctx context.Context, userID string, now time.Time, remaining int) int {
	available := s.capacity.Available(ctx, userID, now)
	if available <= 0 || remaining <= 0 {
		return 0
	}
	return max(1, available/remaining)
}
