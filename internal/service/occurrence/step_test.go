package occurrence

import (
	"testing"
	"time"

	"github.com/AdheeshBhat/Remora/internal/domain"
)

func TestAt(t *testing.T) {
	tests := []struct {
		name   string
		kind   domain.RecurrenceKind
		anchor time.Time
		n      int
		want   time.Time
	}{
		{
			name:   "daily",
			kind:   domain.RecurrenceDaily,
			anchor: date(2025, 1, 30, 9, 0),
			n:      3,
			want:   date(2025, 2, 2, 9, 0),
		},
		{
			name:   "monthly before any clamp",
			kind:   domain.RecurrenceMonthly,
			anchor: date(2025, 1, 15, 9, 0),
			n:      14,
			want:   date(2026, 3, 15, 9, 0),
		},
		{
			name:   "monthly 31st clamps to 30th",
			kind:   domain.RecurrenceMonthly,
			anchor: date(2025, 3, 31, 9, 0),
			n:      2,
			want:   date(2025, 5, 30, 9, 0),
		},
		{
			name:   "monthly settles on 28th after february",
			kind:   domain.RecurrenceMonthly,
			anchor: date(2025, 3, 31, 9, 0),
			n:      13,
			want:   date(2026, 4, 28, 9, 0),
		},
		{
			name:   "leap day anchor stays on 28th",
			kind:   domain.RecurrenceYearly,
			anchor: date(2024, 2, 29, 9, 0),
			n:      4,
			want:   date(2028, 2, 28, 9, 0),
		},
		{
			name:   "yearly outside february never clamps",
			kind:   domain.RecurrenceYearly,
			anchor: date(2025, 3, 31, 9, 0),
			n:      10,
			want:   date(2035, 3, 31, 9, 0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := At(tt.kind, tt.anchor, tt.n); !got.Equal(tt.want) {
				t.Errorf("At() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAtMatchesRepeatedStep(t *testing.T) {
	anchor := date(2024, 1, 31, 9, 0)
	current := anchor
	for n := 1; n <= 30; n++ {
		next, ok := Step(domain.RecurrenceMonthly, current)
		if !ok {
			t.Fatalf("Step() stalled at %v", current)
		}
		if got := At(domain.RecurrenceMonthly, anchor, n); !got.Equal(next) {
			t.Fatalf("At(%d) = %v, repeated Step = %v", n, got, next)
		}
		current = next
	}
}
