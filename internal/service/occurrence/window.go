package occurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var ErrUnknownPeriod = errors.New("unknown period")

// Window is an inclusive time range.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

func ParsePeriod(s string) (Period, error) {
	switch p := Period(strings.ToLower(strings.TrimSpace(s))); p {
	case PeriodDay, PeriodWeek, PeriodMonth:
		return p, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPeriod, s)
	}
}

// PeriodWindow derives the window of period around ref, in ref's location.
// Weeks start on Sunday. Every window ends at 23:59:59 of its last day.
func PeriodWindow(p Period, ref time.Time) Window {
	loc := ref.Location()
	y, m, d := ref.Date()

	switch p {
	case PeriodWeek:
		start := time.Date(y, m, d-int(ref.Weekday()), 0, 0, 0, 0, loc)
		last := start.AddDate(0, 0, 6)
		return Window{Start: start, End: endOfDay(last)}
	case PeriodMonth:
		start := time.Date(y, m, 1, 0, 0, 0, 0, loc)
		last := time.Date(y, m, daysIn(y, m, loc), 0, 0, 0, 0, loc)
		return Window{Start: start, End: endOfDay(last)}
	default:
		start := time.Date(y, m, d, 0, 0, 0, 0, loc)
		return Window{Start: start, End: endOfDay(start)}
	}
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, 0, t.Location())
}
