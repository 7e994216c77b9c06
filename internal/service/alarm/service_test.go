package alarm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"go.uber.org/mock/gomock"

	"github.com/AdheeshBhat/Remora/internal/domain"
	"github.com/AdheeshBhat/Remora/internal/service/capacity"
)

const testUser = "user-1"

// fakePlatform is an in-memory platform scheduler with a per-user ceiling.
type fakePlatform struct {
	mu            sync.Mutex
	ceiling       int
	alarms        map[string]map[string]domain.Alarm
	failIDs       map[string]bool
	cancelErr     error
	scheduleCalls int
}

func newFakePlatform(ceiling int) *fakePlatform {
	return &fakePlatform{
		ceiling: ceiling,
		alarms:  make(map[string]map[string]domain.Alarm),
		failIDs: make(map[string]bool),
	}
}

func (f *fakePlatform) Schedule(ctx context.Context, a domain.Alarm) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.scheduleCalls++
	if f.failIDs[a.ID] {
		return errors.New("identifier collision")
	}
	m, ok := f.alarms[a.UserID]
	if !ok {
		m = make(map[string]domain.Alarm)
		f.alarms[a.UserID] = m
	}
	if _, exists := m[a.ID]; !exists && f.ceiling > 0 && len(m) >= f.ceiling {
		return domain.ErrPlatformCeiling
	}
	m[a.ID] = a
	return nil
}

func (f *fakePlatform) Cancel(ctx context.Context, userID string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.cancelErr != nil {
		return f.cancelErr
	}
	for _, id := range ids {
		delete(f.alarms[userID], id)
	}
	return nil
}

func (f *fakePlatform) ListPending(ctx context.Context, userID string) ([]domain.PendingAlarm, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]domain.PendingAlarm, 0, len(f.alarms[userID]))
	for id, a := range f.alarms[userID] {
		out = append(out, domain.PendingAlarm{ID: id, FireAt: a.FireAt})
	}
	return out, nil
}

func (f *fakePlatform) get(userID, id string) (domain.Alarm, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.alarms[userID][id]
	return a, ok
}

func (f *fakePlatform) sorted(userID string) []domain.Alarm {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]domain.Alarm, 0, len(f.alarms[userID]))
	for _, a := range f.alarms[userID] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].FireAt.Before(out[j].FireAt)
	})
	return out
}

func (f *fakePlatform) put(a domain.Alarm) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.alarms[a.UserID] == nil {
		f.alarms[a.UserID] = make(map[string]domain.Alarm)
	}
	f.alarms[a.UserID][a.ID] = a
}

type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func createTestService(repo domain.ReminderRepository, platform *fakePlatform, clock *testClock) *Service {
	calculator := capacity.NewCalculator(capacity.NewCounter(platform), platform.ceiling)
	return NewService(repo, platform, calculator, nil, nil, Settings{Clock: clock.Now})
}

func dailyReminder(id string, anchor time.Time, until domain.UntilPolicy) *domain.Reminder {
	r := domain.NewReminder(id, testUser, anchor, "Take medication")
	r.Recurrence = domain.NewRecurrenceRule(domain.RecurrenceDaily, until, nil)
	return r
}

var (
	baseNow    = time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	baseAnchor = time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
)

func TestSchedule_ForeverBatch(t *testing.T) {
	platform := newFakePlatform(64)
	svc := createTestService(nil, platform, &testClock{now: baseNow})

	result, err := svc.Schedule(context.Background(), dailyReminder("r1", baseAnchor, domain.Forever()))
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	if result.Mode != domain.AlarmModeForeverBatch {
		t.Errorf("Mode = %v, want %v", result.Mode, domain.AlarmModeForeverBatch)
	}
	if result.ScheduledCount != DefaultMaxBatch {
		t.Errorf("ScheduledCount = %d, want %d", result.ScheduledCount, DefaultMaxBatch)
	}

	alarms := platform.sorted(testUser)
	if len(alarms) != DefaultMaxBatch {
		t.Fatalf("pending = %d, want %d", len(alarms), DefaultMaxBatch)
	}
	if !alarms[0].FireAt.Equal(baseAnchor) {
		t.Errorf("first fire = %v, want %v", alarms[0].FireAt, baseAnchor)
	}

	for i, a := range alarms {
		if a.ID != fmt.Sprintf("r1-%d", i) {
			t.Errorf("alarm[%d].ID = %q", i, a.ID)
		}
		if i < len(alarms)-1 && (a.Payload.IsLastInBatch || a.Payload.NextStart != nil) {
			t.Errorf("alarm[%d] carries a resume point", i)
		}
	}

	last := alarms[len(alarms)-1].Payload
	wantNext := baseAnchor.AddDate(0, 0, DefaultMaxBatch)
	if !last.IsLastInBatch {
		t.Fatal("last alarm is not marked last-in-batch")
	}
	if last.NextStart == nil || !last.NextStart.Equal(wantNext) {
		t.Errorf("NextStart = %v, want %v", last.NextStart, wantNext)
	}
	if last.Generation != 1 {
		t.Errorf("Generation = %d, want 1", last.Generation)
	}
	if svc.Mode(testUser, "r1") != domain.AlarmModeForeverBatch {
		t.Errorf("state mode = %v", svc.Mode(testUser, "r1"))
	}
}

func TestSchedule_StartsAtFirstUpcomingOccurrence(t *testing.T) {
	platform := newFakePlatform(64)
	clock := &testClock{now: time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)}
	svc := createTestService(nil, platform, clock)

	if _, err := svc.Schedule(context.Background(), dailyReminder("r1", baseAnchor, domain.Forever())); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	first := platform.sorted(testUser)[0].FireAt
	want := time.Date(2025, 3, 11, 9, 0, 0, 0, time.UTC)
	if !first.Equal(want) {
		t.Errorf("first fire = %v, want %v", first, want)
	}
}

func TestSchedule_CancelThenRescheduleHasNoOverlap(t *testing.T) {
	platform := newFakePlatform(64)
	svc := createTestService(nil, platform, &testClock{now: baseNow})
	ctx := context.Background()

	r := dailyReminder("r1", baseAnchor, domain.Forever())
	if _, err := svc.Schedule(ctx, r); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	before := make(map[time.Time]bool)
	for _, a := range platform.sorted(testUser) {
		before[a.FireAt] = true
	}

	edited := r.Clone()
	edited.Anchor = baseAnchor.Add(30 * time.Minute)
	if _, err := svc.Schedule(ctx, &edited); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	after := platform.sorted(testUser)
	if len(after) != DefaultMaxBatch {
		t.Fatalf("pending = %d, want %d", len(after), DefaultMaxBatch)
	}
	for _, a := range after {
		if before[a.FireAt] {
			t.Errorf("fire time %v survived the edit", a.FireAt)
		}
	}
	if g := after[len(after)-1].Payload.Generation; g != 2 {
		t.Errorf("Generation = %d, want 2", g)
	}
}

func TestSchedule_SingleShotTrimmedToCeiling(t *testing.T) {
	platform := newFakePlatform(64)
	svc := createTestService(nil, platform, &testClock{now: baseNow})

	until := domain.UntilDate(civil.Date{Year: 2025, Month: time.December, Day: 31})
	result, err := svc.Schedule(context.Background(), dailyReminder("r1", baseAnchor, until))
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	if result.Mode != domain.AlarmModeSingleShot {
		t.Errorf("Mode = %v, want %v", result.Mode, domain.AlarmModeSingleShot)
	}
	if result.ScheduledCount != 64 {
		t.Errorf("ScheduledCount = %d, want 64", result.ScheduledCount)
	}
	if result.TrimmedCount != DefaultSingleShotCap-64 {
		t.Errorf("TrimmedCount = %d, want %d", result.TrimmedCount, DefaultSingleShotCap-64)
	}
	for _, a := range platform.sorted(testUser) {
		if a.Payload.IsLastInBatch {
			t.Errorf("single-shot alarm %s marked last-in-batch", a.ID)
		}
	}
}

func TestSchedule_SingleShotStopsAtUntilDate(t *testing.T) {
	platform := newFakePlatform(64)
	svc := createTestService(nil, platform, &testClock{now: baseNow})

	until := domain.UntilDate(civil.Date{Year: 2025, Month: time.January, Day: 5})
	result, err := svc.Schedule(context.Background(), dailyReminder("r1", baseAnchor, until))
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if result.ScheduledCount != 5 {
		t.Errorf("ScheduledCount = %d, want 5", result.ScheduledCount)
	}
}

func TestSchedule_PerAlarmFaultIsolation(t *testing.T) {
	platform := newFakePlatform(64)
	platform.failIDs["r1-3"] = true
	svc := createTestService(nil, platform, &testClock{now: baseNow})

	result, err := svc.Schedule(context.Background(), dailyReminder("r1", baseAnchor, domain.Forever()))
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if result.FailedCount != 1 {
		t.Errorf("FailedCount = %d, want 1", result.FailedCount)
	}
	if result.ScheduledCount != DefaultMaxBatch-1 {
		t.Errorf("ScheduledCount = %d, want %d", result.ScheduledCount, DefaultMaxBatch-1)
	}
	if _, ok := platform.get(testUser, "r1-49"); !ok {
		t.Error("alarms after the failure were not attempted")
	}
}

func TestSchedule_CompletedReminderOnlyCancels(t *testing.T) {
	platform := newFakePlatform(64)
	svc := createTestService(nil, platform, &testClock{now: baseNow})
	ctx := context.Background()

	r := dailyReminder("r1", baseAnchor, domain.Forever())
	if _, err := svc.Schedule(ctx, r); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	done := r.Clone()
	done.IsComplete = true
	result, err := svc.Schedule(ctx, &done)
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if !result.Skipped || result.Mode != domain.AlarmModeIdle {
		t.Errorf("result = %+v, want skipped idle", result)
	}
	if n := len(platform.sorted(testUser)); n != 0 {
		t.Errorf("pending = %d, want 0", n)
	}
}

func TestSchedule_CancelFailureAborts(t *testing.T) {
	platform := newFakePlatform(64)
	platform.cancelErr = errors.New("permission revoked")
	svc := createTestService(nil, platform, &testClock{now: baseNow})

	_, err := svc.Schedule(context.Background(), dailyReminder("r1", baseAnchor, domain.Forever()))
	if err == nil {
		t.Fatal("expected error")
	}
	if platform.scheduleCalls != 0 {
		t.Errorf("scheduleCalls = %d, want 0", platform.scheduleCalls)
	}
}

func TestSchedule_DeletedInstancesSkipped(t *testing.T) {
	platform := newFakePlatform(64)
	svc := createTestService(nil, platform, &testClock{now: baseNow})

	r := dailyReminder("r1", baseAnchor, domain.Forever())
	r.DeleteInstance(civil.Date{Year: 2025, Month: time.January, Day: 2})

	if _, err := svc.Schedule(context.Background(), r); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	alarms := platform.sorted(testUser)
	if len(alarms) != DefaultMaxBatch {
		t.Fatalf("pending = %d, want %d", len(alarms), DefaultMaxBatch)
	}
	want := time.Date(2025, 1, 3, 9, 0, 0, 0, time.UTC)
	if !alarms[1].FireAt.Equal(want) {
		t.Errorf("second fire = %v, want %v", alarms[1].FireAt, want)
	}
}

func TestCancel(t *testing.T) {
	platform := newFakePlatform(64)
	svc := createTestService(nil, platform, &testClock{now: baseNow})
	ctx := context.Background()

	if _, err := svc.Schedule(ctx, dailyReminder("r1", baseAnchor, domain.Forever())); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if err := svc.Cancel(ctx, testUser, "r1"); err != nil {
		t.Fatalf("Cancel() error = %v", err)
	}
	if n := len(platform.sorted(testUser)); n != 0 {
		t.Errorf("pending = %d, want 0", n)
	}
	if svc.Mode(testUser, "r1") != domain.AlarmModeIdle {
		t.Errorf("mode = %v, want idle", svc.Mode(testUser, "r1"))
	}
	// Cancelling again is a no-op.
	if err := svc.Cancel(ctx, testUser, "r1"); err != nil {
		t.Errorf("second Cancel() error = %v", err)
	}
}

func lastPayload(t *testing.T, platform *fakePlatform) (string, domain.AlarmPayload) {
	t.Helper()
	alarms := platform.sorted(testUser)
	if len(alarms) == 0 {
		t.Fatal("no pending alarms")
	}
	last := alarms[len(alarms)-1]
	return last.ID, last.Payload
}

func TestHandleFired_RefillsFromResumePoint(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := domain.NewMockReminderRepository(ctrl)
	platform := newFakePlatform(64)
	svc := createTestService(repo, platform, &testClock{now: baseNow})
	ctx := context.Background()

	r := dailyReminder("r1", baseAnchor, domain.Forever())
	if _, err := svc.Schedule(ctx, r); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	id, payload := lastPayload(t, platform)

	repo.EXPECT().Get(gomock.Any(), testUser, "r1").Return(r, nil)

	if err := svc.HandleFired(ctx, id, payload); err != nil {
		t.Fatalf("HandleFired() error = %v", err)
	}

	alarms := platform.sorted(testUser)
	if len(alarms) != DefaultMaxBatch {
		t.Fatalf("pending = %d, want %d", len(alarms), DefaultMaxBatch)
	}
	if !alarms[0].FireAt.Equal(*payload.NextStart) {
		t.Errorf("refill starts at %v, want %v", alarms[0].FireAt, *payload.NextStart)
	}
	_, next := lastPayload(t, platform)
	wantNext := time.Date(2025, 4, 11, 9, 0, 0, 0, time.UTC)
	if next.NextStart == nil || !next.NextStart.Equal(wantNext) {
		t.Errorf("NextStart = %v, want %v", next.NextStart, wantNext)
	}
	if next.Generation != 2 {
		t.Errorf("Generation = %d, want 2", next.Generation)
	}
}

func TestHandleFired_IgnoresNonTerminalAlarms(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := domain.NewMockReminderRepository(ctrl)
	platform := newFakePlatform(64)
	svc := createTestService(repo, platform, &testClock{now: baseNow})

	err := svc.HandleFired(context.Background(), "r1-3", domain.AlarmPayload{ReminderID: "r1", UserID: testUser})
	if err != nil {
		t.Errorf("HandleFired() error = %v", err)
	}
	if platform.scheduleCalls != 0 {
		t.Errorf("scheduleCalls = %d, want 0", platform.scheduleCalls)
	}
}

func TestHandleFired_StopConditions(t *testing.T) {
	ended := dailyReminder("r1", baseAnchor, domain.UntilDate(civil.Date{Year: 2025, Month: time.February, Day: 1}))
	completed := dailyReminder("r1", baseAnchor, domain.Forever())
	completed.IsComplete = true
	openEnded := dailyReminder("r1", baseAnchor, domain.UntilPolicy{})
	future := dailyReminder("r1", baseAnchor, domain.UntilDate(civil.Date{Year: 2030, Month: time.January, Day: 1}))

	tests := []struct {
		name     string
		reminder *domain.Reminder
		err      error
	}{
		{name: "reminder deleted", err: fmt.Errorf("lookup: %w", domain.ErrReminderNotFound)},
		{name: "store unavailable", err: errors.New("connection refused")},
		{name: "reminder completed", reminder: completed},
		{name: "until date before resume point", reminder: ended},
		{name: "no longer forever", reminder: openEnded},
		{name: "edited to a future until date", reminder: future},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			repo := domain.NewMockReminderRepository(ctrl)
			platform := newFakePlatform(64)
			svc := createTestService(repo, platform, &testClock{now: baseNow})
			ctx := context.Background()

			if _, err := svc.Schedule(ctx, dailyReminder("r1", baseAnchor, domain.Forever())); err != nil {
				t.Fatalf("Schedule() error = %v", err)
			}
			id, payload := lastPayload(t, platform)
			calls := platform.scheduleCalls

			repo.EXPECT().Get(gomock.Any(), testUser, "r1").Return(tt.reminder, tt.err)

			if err := svc.HandleFired(ctx, id, payload); err != nil {
				t.Errorf("HandleFired() error = %v, want nil", err)
			}
			if platform.scheduleCalls != calls {
				t.Errorf("scheduleCalls = %d, want %d", platform.scheduleCalls, calls)
			}
		})
	}
}

func TestHandleFired_DiscardsStaleGeneration(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := domain.NewMockReminderRepository(ctrl)
	platform := newFakePlatform(64)
	svc := createTestService(repo, platform, &testClock{now: baseNow})
	ctx := context.Background()

	r := dailyReminder("r1", baseAnchor, domain.Forever())
	if _, err := svc.Schedule(ctx, r); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	id, stale := lastPayload(t, platform)

	// An edit replaces the batch before the old callback arrives.
	if _, err := svc.Schedule(ctx, r); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	calls := platform.scheduleCalls

	if err := svc.HandleFired(ctx, id, stale); err != nil {
		t.Errorf("HandleFired() error = %v", err)
	}
	if platform.scheduleCalls != calls {
		t.Errorf("stale callback scheduled %d alarms", platform.scheduleCalls-calls)
	}
}

func TestHandleFired_PastResumePointStartsFromNow(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := domain.NewMockReminderRepository(ctrl)
	platform := newFakePlatform(64)
	clock := &testClock{now: baseNow}
	svc := createTestService(repo, platform, clock)
	ctx := context.Background()

	r := dailyReminder("r1", baseAnchor, domain.Forever())
	if _, err := svc.Schedule(ctx, r); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	id, payload := lastPayload(t, platform)

	clock.now = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	repo.EXPECT().Get(gomock.Any(), testUser, "r1").Return(r, nil)

	if err := svc.HandleFired(ctx, id, payload); err != nil {
		t.Fatalf("HandleFired() error = %v", err)
	}
	first := platform.sorted(testUser)[0].FireAt
	want := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	if !first.Equal(want) {
		t.Errorf("first fire = %v, want %v", first, want)
	}
}

func TestRefresh_BelowThresholdDoesNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := domain.NewMockReminderRepository(ctrl)
	platform := newFakePlatform(64)
	for i := 0; i < 12; i++ {
		platform.put(domain.Alarm{ID: fmt.Sprintf("other-%d", i), UserID: testUser, FireAt: baseNow.Add(time.Duration(i+1) * time.Hour)})
	}
	svc := createTestService(repo, platform, &testClock{now: baseNow})

	result, err := svc.Refresh(context.Background(), testUser)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}
	if result.Triggered {
		t.Error("refresh triggered with 12 live alarms")
	}
	if result.PendingCount != 12 {
		t.Errorf("PendingCount = %d, want 12", result.PendingCount)
	}
}

func TestRefresh_RebuildsForeverBatchesWithinCeiling(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := domain.NewMockReminderRepository(ctrl)
	platform := newFakePlatform(64)
	for i := 0; i < 5; i++ {
		platform.put(domain.Alarm{ID: fmt.Sprintf("live-%d", i), UserID: testUser, FireAt: baseNow.Add(time.Duration(i+1) * time.Hour)})
	}
	for i := 0; i < 3; i++ {
		platform.put(domain.Alarm{ID: fmt.Sprintf("expired-%d", i), UserID: testUser, FireAt: baseNow.Add(-time.Duration(i+1) * time.Hour)})
	}
	svc := createTestService(repo, platform, &testClock{now: baseNow})

	repo.EXPECT().ListForever(gomock.Any(), testUser).Return(map[string]domain.Reminder{
		"r1": *dailyReminder("", baseAnchor, domain.Forever()),
		"r2": *dailyReminder("", baseAnchor.Add(time.Hour), domain.Forever()),
	}, nil)

	result, err := svc.Refresh(context.Background(), testUser)
	if err != nil {
		t.Fatalf("Refresh() error = %v", err)
	}

	if !result.Triggered {
		t.Fatal("refresh not triggered with 5 live alarms")
	}
	if result.PendingCount != 8 || result.ExpiredCount != 3 {
		t.Errorf("PendingCount = %d, ExpiredCount = %d, want 8, 3", result.PendingCount, result.ExpiredCount)
	}
	if result.ProcessedCount != 2 || result.SuccessCount != 2 {
		t.Errorf("ProcessedCount = %d, SuccessCount = %d, want 2, 2", result.ProcessedCount, result.SuccessCount)
	}
	for _, r := range result.Results {
		if r.ScheduledCount != 28 {
			t.Errorf("%s ScheduledCount = %d, want 28", r.ReminderID, r.ScheduledCount)
		}
	}
	if n := len(platform.sorted(testUser)); n != 64 {
		t.Errorf("pending = %d, want 64", n)
	}
}

func TestRefresh_ListFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := domain.NewMockReminderRepository(ctrl)
	platform := newFakePlatform(64)
	svc := createTestService(repo, platform, &testClock{now: baseNow})

	repo.EXPECT().ListForever(gomock.Any(), testUser).Return(nil, errors.New("store unavailable"))

	if _, err := svc.Refresh(context.Background(), testUser); err == nil {
		t.Error("expected error")
	}
}
