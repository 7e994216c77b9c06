package domain

import (
	"fmt"
	"strings"

	"cloud.google.com/go/civil"
	"github.com/samber/mo"
)

// RecurrenceKind describes how a reminder repeats.
type RecurrenceKind string

const (
	RecurrenceNone    RecurrenceKind = "None"
	RecurrenceDaily   RecurrenceKind = "Daily"
	RecurrenceWeekly  RecurrenceKind = "Weekly"
	RecurrenceMonthly RecurrenceKind = "Monthly"
	RecurrenceYearly  RecurrenceKind = "Yearly"
	RecurrenceCustom  RecurrenceKind = "Custom"
)

func (k RecurrenceKind) String() string {
	return string(k)
}

// ParseRecurrenceKind maps a stored repeat type to a kind. Unknown values
// read as None.
func ParseRecurrenceKind(s string) RecurrenceKind {
	switch RecurrenceKind(strings.TrimSpace(s)) {
	case RecurrenceDaily:
		return RecurrenceDaily
	case RecurrenceWeekly:
		return RecurrenceWeekly
	case RecurrenceMonthly:
		return RecurrenceMonthly
	case RecurrenceYearly:
		return RecurrenceYearly
	case RecurrenceCustom:
		return RecurrenceCustom
	default:
		return RecurrenceNone
	}
}

// IsPeriodic reports whether the kind advances by a fixed calendar unit.
func (k RecurrenceKind) IsPeriodic() bool {
	switch k {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly, RecurrenceYearly:
		return true
	default:
		return false
	}
}

const (
	untilForeverSentinel = "Forever"
	untilDateLayout      = "2006-01-02"
)

// UntilPolicy bounds a recurrence. The zero value is open: not forever and
// without an end date.
type UntilPolicy struct {
	forever bool
	date    mo.Option[civil.Date]
}

func Forever() UntilPolicy {
	return UntilPolicy{forever: true, date: mo.None[civil.Date]()}
}

func UntilDate(d civil.Date) UntilPolicy {
	return UntilPolicy{date: mo.Some(d)}
}

func (u UntilPolicy) IsForever() bool {
	return u.forever
}

// Date returns the inclusive end date, if any.
func (u UntilPolicy) Date() (civil.Date, bool) {
	return u.date.Get()
}

// Excludes reports whether the calendar day d lies after the end date.
func (u UntilPolicy) Excludes(d civil.Date) bool {
	end, ok := u.date.Get()
	if !ok {
		return false
	}
	return d.After(end)
}

// String renders the storage form: "Forever", "yyyy-MM-dd" or "".
func (u UntilPolicy) String() string {
	if u.forever {
		return untilForeverSentinel
	}
	if d, ok := u.date.Get(); ok {
		return d.String()
	}
	return ""
}

// ParseUntilPolicy reads the storage form. Empty input is the open policy.
func ParseUntilPolicy(s string) (UntilPolicy, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "":
		return UntilPolicy{}, nil
	case untilForeverSentinel:
		return Forever(), nil
	}

	d, err := civil.ParseDate(s)
	if err != nil {
		return UntilPolicy{}, fmt.Errorf("%w: %q", ErrInvalidUntilDate, s)
	}
	return UntilDate(d), nil
}

type RecurrenceRule struct {
	Kind           RecurrenceKind
	Until          UntilPolicy
	CustomPatterns []string
}

// NewRecurrenceRule normalizes the pattern list against the kind: patterns
// are kept only for Custom rules.
func NewRecurrenceRule(kind RecurrenceKind, until UntilPolicy, patterns []string) RecurrenceRule {
	rule := RecurrenceRule{Kind: kind, Until: until}
	if kind != RecurrenceCustom {
		return rule
	}

	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			rule.CustomPatterns = append(rule.CustomPatterns, p)
		}
	}
	return rule
}

// SplitPatterns splits the comma-joined pattern list used in stored documents.
func SplitPatterns(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func JoinPatterns(patterns []string) string {
	return strings.Join(patterns, ", ")
}

func (r RecurrenceRule) Validate() error {
	if r.Kind == RecurrenceCustom && len(r.CustomPatterns) == 0 {
		return ErrMissingCustomPatterns
	}
	return nil
}
