package views

import (
	"testing"
	"time"

	"github.com/AdheeshBhat/Remora/internal/domain"
	"github.com/AdheeshBhat/Remora/internal/service/occurrence"
)

func reminder(id string, anchor time.Time, kind domain.RecurrenceKind, complete bool) domain.Reminder {
	r := domain.NewReminder(id, "user-1", anchor, id)
	r.Recurrence = domain.NewRecurrenceRule(kind, domain.Forever(), nil)
	r.IsComplete = complete
	return *r
}

func at(d, hh int) time.Time {
	return time.Date(2025, 1, d, hh, 0, 0, 0, time.UTC)
}

func TestAllSortedAscending(t *testing.T) {
	reminders := map[string]domain.Reminder{
		"evening": reminder("evening", at(1, 20), domain.RecurrenceDaily, false),
		"morning": reminder("morning", at(1, 8), domain.RecurrenceDaily, false),
		"weekly":  reminder("weekly", at(6, 12), domain.RecurrenceWeekly, false),
	}

	got := All(reminders, occurrence.PeriodWeek, at(8, 0))
	if len(got) != 15 {
		t.Fatalf("expected 15 occurrences, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if got[i].At.Before(got[i-1].At) {
			t.Fatalf("occurrences out of order at %d: %v before %v", i, got[i].At, got[i-1].At)
		}
	}
	if got[0].SourceReminderID != "morning" || !got[0].At.Equal(at(5, 8)) {
		t.Errorf("first occurrence = %s at %v", got[0].SourceReminderID, got[0].At)
	}
}

func TestIncompleteFiltersAfterExpansion(t *testing.T) {
	reminders := map[string]domain.Reminder{
		"done": reminder("done", at(1, 8), domain.RecurrenceDaily, true),
		"todo": reminder("todo", at(1, 9), domain.RecurrenceDaily, false),
	}

	got := Incomplete(reminders, occurrence.PeriodDay, at(3, 0))
	if len(got) != 1 {
		t.Fatalf("expected 1 occurrence, got %d", len(got))
	}
	if got[0].SourceReminderID != "todo" {
		t.Errorf("unexpected reminder %s", got[0].SourceReminderID)
	}
}

func TestIsEmpty(t *testing.T) {
	reminders := map[string]domain.Reminder{
		"once": reminder("once", at(10, 23), domain.RecurrenceNone, false),
	}

	tests := []struct {
		name   string
		period occurrence.Period
		ref    time.Time
		want   bool
	}{
		{name: "day containing the reminder", period: occurrence.PeriodDay, ref: at(10, 0), want: false},
		{name: "following day", period: occurrence.PeriodDay, ref: at(11, 0), want: true},
		{name: "week containing the reminder", period: occurrence.PeriodWeek, ref: at(7, 0), want: false},
		{name: "month containing the reminder", period: occurrence.PeriodMonth, ref: at(31, 0), want: false},
		{name: "other month", period: occurrence.PeriodMonth, ref: time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEmpty(reminders, tt.period, tt.ref); got != tt.want {
				t.Errorf("IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestViewsAgreeWithExpander(t *testing.T) {
	reminders := map[string]domain.Reminder{
		"a": reminder("a", at(1, 8), domain.RecurrenceDaily, false),
		"b": reminder("b", at(2, 12), domain.RecurrenceWeekly, true),
	}

	for _, p := range []occurrence.Period{occurrence.PeriodDay, occurrence.PeriodWeek, occurrence.PeriodMonth} {
		expanded := occurrence.ExpandPeriod(reminders, p, at(15, 0))
		all := All(reminders, p, at(15, 0))
		if len(all) != len(expanded) {
			t.Errorf("period %s: view has %d occurrences, expander %d", p, len(all), len(expanded))
		}
		for _, o := range all {
			if _, ok := expanded[o.InstanceKey]; !ok {
				t.Errorf("period %s: view instance %s missing from expansion", p, o.InstanceKey)
			}
		}
		if IsEmpty(reminders, p, at(15, 0)) != (len(expanded) == 0) {
			t.Errorf("period %s: IsEmpty disagrees with expansion", p)
		}
	}
}

func TestGroupByDay(t *testing.T) {
	reminders := map[string]domain.Reminder{
		"a": reminder("a", at(1, 8), domain.RecurrenceDaily, false),
		"b": reminder("b", at(1, 20), domain.RecurrenceDaily, false),
	}

	groups := Calendar(reminders, occurrence.Window{Start: at(1, 0), End: at(3, 23)})
	if len(groups) != 3 {
		t.Fatalf("expected 3 day groups, got %d", len(groups))
	}
	for i, g := range groups {
		if g.Date.Day != i+1 {
			t.Errorf("group[%d] date = %v", i, g.Date)
		}
		if len(g.Occurrences) != 2 {
			t.Errorf("group[%d] has %d occurrences, want 2", i, len(g.Occurrences))
		}
		if g.Occurrences[0].SourceReminderID != "a" {
			t.Errorf("group[%d] not sorted within the day", i)
		}
	}
}

func TestCalendarWindow(t *testing.T) {
	now := time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)
	w := CalendarWindow(now)
	if !w.Start.Equal(time.Date(2024, 6, 15, 10, 0, 0, 0, time.UTC)) || !w.End.Equal(time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected calendar window %v .. %v", w.Start, w.End)
	}
}
