package occurrence

import (
	"time"

	"github.com/AdheeshBhat/Remora/internal/domain"
)

// At returns the n-th occurrence of a periodic rule counted from anchor.
// Each month or year step starts from the previous occurrence and clamps the
// day to the end of the target month, so a clamped day carries forward:
// Jan 31 gives Feb 28, then Mar 28.
func At(kind domain.RecurrenceKind, anchor time.Time, n int) time.Time {
	switch kind {
	case domain.RecurrenceDaily:
		return anchor.AddDate(0, 0, n)
	case domain.RecurrenceWeekly:
		return anchor.AddDate(0, 0, 7*n)
	case domain.RecurrenceMonthly:
		return advanceMonths(anchor, n, 1)
	case domain.RecurrenceYearly:
		return advanceMonths(anchor, n, 12)
	default:
		return anchor
	}
}

// advanceMonths applies n clamped steps of unit months. Every month has at
// least 28 days, so once the day is 28 or less the remaining steps collapse
// into a single add.
func advanceMonths(t time.Time, n, unit int) time.Time {
	for ; n > 0 && t.Day() > 28; n-- {
		t = addMonthsClamped(t, unit)
	}
	if n > 0 {
		t = addMonthsClamped(t, unit*n)
	}
	return t
}

// Step advances t by one calendar unit of kind. It reports false for kinds
// that have no fixed unit.
func Step(kind domain.RecurrenceKind, t time.Time) (time.Time, bool) {
	if !kind.IsPeriodic() {
		return t, false
	}
	next := At(kind, t, 1)
	return next, next.After(t)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysIn(first.Year(), first.Month(), t.Location()); d > last {
		d = last
	}
	return time.Date(first.Year(), first.Month(), d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

// indexAtOrAfter returns the smallest n with At(kind, anchor, n) >= t.
func indexAtOrAfter(kind domain.RecurrenceKind, anchor, t time.Time) int {
	if !t.After(anchor) {
		return 0
	}

	n := estimateIndex(kind, anchor, t)
	for n > 0 && !At(kind, anchor, n-1).Before(t) {
		n--
	}
	for At(kind, anchor, n).Before(t) {
		next := At(kind, anchor, n+1)
		if !next.After(At(kind, anchor, n)) {
			break
		}
		n++
	}
	return n
}

// estimateIndex is a cheap lower bound used to skip ahead for old anchors.
func estimateIndex(kind domain.RecurrenceKind, anchor, t time.Time) int {
	var n int
	switch kind {
	case domain.RecurrenceDaily:
		n = int(t.Sub(anchor)/(24*time.Hour)) - 1
	case domain.RecurrenceWeekly:
		n = int(t.Sub(anchor)/(7*24*time.Hour)) - 1
	case domain.RecurrenceMonthly:
		local := t.In(anchor.Location())
		n = (local.Year()-anchor.Year())*12 + int(local.Month()-anchor.Month()) - 1
	case domain.RecurrenceYearly:
		n = t.In(anchor.Location()).Year() - anchor.Year() - 1
	}
	if n < 0 {
		return 0
	}
	return n
}
