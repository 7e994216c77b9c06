package occurrence

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"

	"github.com/AdheeshBhat/Remora/internal/domain"
)

func TestNextAfter(t *testing.T) {
	tests := []struct {
		name     string
		reminder domain.Reminder
		after    time.Time
		want     time.Time
		found    bool
	}{
		{
			name:     "daily keeps anchor time of day",
			reminder: newReminder("d", date(2025, 1, 1, 9, 0), domain.RecurrenceDaily, domain.Forever()),
			after:    date(2025, 3, 10, 12, 0),
			want:     date(2025, 3, 11, 9, 0),
			found:    true,
		},
		{
			name:     "daily exactly at an occurrence moves on",
			reminder: newReminder("d", date(2025, 1, 1, 9, 0), domain.RecurrenceDaily, domain.Forever()),
			after:    date(2025, 3, 10, 9, 0),
			want:     date(2025, 3, 11, 9, 0),
			found:    true,
		},
		{
			name:     "before anchor returns anchor",
			reminder: newReminder("w", date(2025, 1, 6, 9, 0), domain.RecurrenceWeekly, domain.Forever()),
			after:    date(2024, 12, 1, 0, 0),
			want:     date(2025, 1, 6, 9, 0),
			found:    true,
		},
		{
			name:     "monthly clamps",
			reminder: newReminder("m", date(2025, 1, 31, 9, 0), domain.RecurrenceMonthly, domain.Forever()),
			after:    date(2025, 2, 1, 0, 0),
			want:     date(2025, 2, 28, 9, 0),
			found:    true,
		},
		{
			name:     "monthly keeps the clamped day",
			reminder: newReminder("m", date(2025, 1, 31, 9, 0), domain.RecurrenceMonthly, domain.Forever()),
			after:    date(2025, 3, 1, 0, 0),
			want:     date(2025, 3, 28, 9, 0),
			found:    true,
		},
		{
			name: "until date stops the sequence",
			reminder: newReminder("u", date(2025, 2, 14, 10, 0), domain.RecurrenceDaily,
				domain.UntilDate(civil.Date{Year: 2025, Month: time.February, Day: 15})),
			after: date(2025, 2, 15, 10, 0),
			found: false,
		},
		{
			name:     "custom before anchor returns anchor",
			reminder: newReminder("c", date(2025, 3, 11, 8, 0), domain.RecurrenceCustom, domain.Forever(), "2nd Tue"),
			after:    date(2025, 3, 1, 0, 0),
			want:     date(2025, 3, 11, 8, 0),
			found:    true,
		},
		{
			name:     "custom after anchor uses next month",
			reminder: newReminder("c", date(2025, 3, 11, 8, 0), domain.RecurrenceCustom, domain.Forever(), "2nd Tue"),
			after:    date(2025, 3, 11, 8, 0),
			want:     date(2025, 4, 8, 8, 0),
			found:    true,
		},
		{
			name:     "custom skips later anchor-month matches",
			reminder: newReminder("c", date(2025, 1, 6, 8, 0), domain.RecurrenceCustom, domain.Forever(), "1st Mon", "3rd Fri"),
			after:    date(2025, 1, 6, 8, 0),
			want:     date(2025, 2, 3, 8, 0),
			found:    true,
		},
		{
			name:     "custom picks earliest pattern",
			reminder: newReminder("c", date(2025, 1, 6, 8, 0), domain.RecurrenceCustom, domain.Forever(), "1st Mon", "3rd Fri"),
			after:    date(2025, 2, 4, 0, 0),
			want:     date(2025, 2, 21, 8, 0),
			found:    true,
		},
		{
			name:     "one-off in the future",
			reminder: newReminder("n", date(2025, 5, 1, 9, 0), domain.RecurrenceNone, domain.UntilPolicy{}),
			after:    date(2025, 4, 1, 0, 0),
			want:     date(2025, 5, 1, 9, 0),
			found:    true,
		},
		{
			name:     "one-off in the past",
			reminder: newReminder("n", date(2025, 5, 1, 9, 0), domain.RecurrenceNone, domain.UntilPolicy{}),
			after:    date(2025, 6, 1, 0, 0),
			found:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextAfter(&tt.reminder, tt.after)
			if ok != tt.found {
				t.Fatalf("NextAfter() found = %v, want %v (got %v)", ok, tt.found, got)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("NextAfter() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTriggers(t *testing.T) {
	until := domain.UntilDate(civil.Date{Year: 2025, Month: time.January, Day: 10})

	t.Run("bounded by until date", func(t *testing.T) {
		r := newReminder("d", date(2025, 1, 1, 9, 0), domain.RecurrenceDaily, until)
		got := Triggers(&r, date(2025, 1, 5, 0, 0), 100)
		if len(got) != 6 {
			t.Fatalf("expected 6 triggers, got %d", len(got))
		}
		if !got[0].Equal(date(2025, 1, 5, 9, 0)) || !got[5].Equal(date(2025, 1, 10, 9, 0)) {
			t.Errorf("unexpected trigger range %v .. %v", got[0], got[5])
		}
	})

	t.Run("includes an occurrence exactly at from", func(t *testing.T) {
		r := newReminder("d", date(2025, 1, 1, 9, 0), domain.RecurrenceDaily, until)
		got := Triggers(&r, date(2025, 1, 5, 9, 0), 1)
		if len(got) != 1 || !got[0].Equal(date(2025, 1, 5, 9, 0)) {
			t.Errorf("unexpected triggers %v", got)
		}
	})

	t.Run("skips deleted instances", func(t *testing.T) {
		r := newReminder("d", date(2025, 1, 1, 9, 0), domain.RecurrenceDaily, until)
		r.DeleteInstance(civil.Date{Year: 2025, Month: time.January, Day: 7})
		got := Triggers(&r, date(2025, 1, 5, 0, 0), 100)
		if len(got) != 5 {
			t.Fatalf("expected 5 triggers, got %d", len(got))
		}
		for _, at := range got {
			if at.Day() == 7 {
				t.Errorf("deleted instance %v scheduled", at)
			}
		}
	})

	t.Run("respects limit", func(t *testing.T) {
		r := newReminder("d", date(2025, 1, 1, 9, 0), domain.RecurrenceDaily, domain.UntilPolicy{})
		if got := Triggers(&r, date(2025, 1, 1, 0, 0), 100); len(got) != 100 {
			t.Errorf("expected 100 triggers, got %d", len(got))
		}
	})

	t.Run("custom patterns", func(t *testing.T) {
		r := newReminder("c", date(2025, 3, 11, 8, 0), domain.RecurrenceCustom, domain.Forever(), "2nd Tue")
		got := Triggers(&r, date(2025, 3, 1, 0, 0), 3)
		want := []time.Time{date(2025, 3, 11, 8, 0), date(2025, 4, 8, 8, 0), date(2025, 5, 13, 8, 0)}
		if len(got) != len(want) {
			t.Fatalf("expected %d triggers, got %d", len(want), len(got))
		}
		for i := range want {
			if !got[i].Equal(want[i]) {
				t.Errorf("trigger[%d] = %v, want %v", i, got[i], want[i])
			}
		}
	})
}

func TestStep(t *testing.T) {
	if _, ok := Step(domain.RecurrenceNone, date(2025, 1, 1, 0, 0)); ok {
		t.Error("none has no step")
	}
	if _, ok := Step(domain.RecurrenceCustom, date(2025, 1, 1, 0, 0)); ok {
		t.Error("custom has no fixed step")
	}
	next, ok := Step(domain.RecurrenceWeekly, date(2025, 1, 1, 9, 0))
	if !ok || !next.Equal(date(2025, 1, 8, 9, 0)) {
		t.Errorf("Step(weekly) = %v, %v", next, ok)
	}
}
