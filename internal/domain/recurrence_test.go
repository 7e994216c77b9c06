package domain

import (
	"errors"
	"testing"
	"time"

	"cloud.google.com/go/civil"
)

func TestParseUntilPolicy(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		wantForever bool
		wantDate    string
		wantErr     error
	}{
		{name: "forever sentinel", input: "Forever", wantForever: true},
		{name: "empty is open", input: ""},
		{name: "whitespace is open", input: "  "},
		{name: "calendar date", input: "2025-02-15", wantDate: "2025-02-15"},
		{name: "garbage", input: "someday", wantErr: ErrInvalidUntilDate},
		{name: "timestamp is not a date", input: "2025-02-15T10:00:00Z", wantErr: ErrInvalidUntilDate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseUntilPolicy(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected error %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.IsForever() != tt.wantForever {
				t.Errorf("IsForever() = %v, want %v", got.IsForever(), tt.wantForever)
			}
			d, ok := got.Date()
			if tt.wantDate == "" && ok {
				t.Errorf("unexpected date %v", d)
			}
			if tt.wantDate != "" && (!ok || d.String() != tt.wantDate) {
				t.Errorf("Date() = %v, %v, want %s", d, ok, tt.wantDate)
			}
		})
	}
}

func TestUntilPolicyStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "Forever", "2025-12-31"} {
		p, err := ParseUntilPolicy(s)
		if err != nil {
			t.Fatalf("ParseUntilPolicy(%q): %v", s, err)
		}
		if p.String() != s {
			t.Errorf("String() = %q, want %q", p.String(), s)
		}
	}
}

func TestUntilPolicyExcludesByCalendarDay(t *testing.T) {
	until := UntilDate(civil.Date{Year: 2025, Month: time.February, Day: 15})

	if until.Excludes(civil.Date{Year: 2025, Month: time.February, Day: 15}) {
		t.Error("end date itself must be included")
	}
	if !until.Excludes(civil.Date{Year: 2025, Month: time.February, Day: 16}) {
		t.Error("day after end date must be excluded")
	}
	if Forever().Excludes(civil.Date{Year: 2999, Month: time.January, Day: 1}) {
		t.Error("forever never excludes")
	}
	if (UntilPolicy{}).Excludes(civil.Date{Year: 2999, Month: time.January, Day: 1}) {
		t.Error("open policy never excludes")
	}
}

func TestNewRecurrenceRuleDropsPatternsForNonCustom(t *testing.T) {
	rule := NewRecurrenceRule(RecurrenceWeekly, Forever(), []string{"1st Mon"})
	if len(rule.CustomPatterns) != 0 {
		t.Errorf("expected patterns dropped, got %v", rule.CustomPatterns)
	}

	custom := NewRecurrenceRule(RecurrenceCustom, Forever(), []string{" 1st Mon", "", "3rd Fri "})
	if len(custom.CustomPatterns) != 2 || custom.CustomPatterns[0] != "1st Mon" || custom.CustomPatterns[1] != "3rd Fri" {
		t.Errorf("unexpected patterns %v", custom.CustomPatterns)
	}

	if err := NewRecurrenceRule(RecurrenceCustom, Forever(), nil).Validate(); !errors.Is(err, ErrMissingCustomPatterns) {
		t.Errorf("expected ErrMissingCustomPatterns, got %v", err)
	}
}

func TestSplitPatterns(t *testing.T) {
	got := SplitPatterns("1st Mon, 3rd Fri,,  2nd Tue ")
	want := []string{"1st Mon", "3rd Fri", "2nd Tue"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("pattern[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if JoinPatterns(want) != "1st Mon, 3rd Fri, 2nd Tue" {
		t.Errorf("unexpected join %q", JoinPatterns(want))
	}
}

func TestParseRecurrenceKind(t *testing.T) {
	tests := map[string]RecurrenceKind{
		"Daily":   RecurrenceDaily,
		"Weekly":  RecurrenceWeekly,
		"Monthly": RecurrenceMonthly,
		"Yearly":  RecurrenceYearly,
		"Custom":  RecurrenceCustom,
		"None":    RecurrenceNone,
		"":        RecurrenceNone,
		"Hourly":  RecurrenceNone,
	}
	for in, want := range tests {
		if got := ParseRecurrenceKind(in); got != want {
			t.Errorf("ParseRecurrenceKind(%q) = %v, want %v", in, got, want)
		}
	}
}
