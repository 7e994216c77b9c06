package views

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/AdheeshBhat/Remora/internal/domain"
	"github.com/AdheeshBhat/Remora/internal/service/occurrence"
)

// All returns every occurrence in the period around ref, earliest first.
func All(reminders map[string]domain.Reminder, p occurrence.Period, ref time.Time) []domain.Occurrence {
	return occurrence.Sorted(occurrence.ExpandPeriod(reminders, p, ref))
}

// Incomplete is All without completed reminders.
func Incomplete(reminders map[string]domain.Reminder, p occurrence.Period, ref time.Time) []domain.Occurrence {
	all := All(reminders, p, ref)
	out := all[:0]
	for _, o := range all {
		if !o.Reminder.IsComplete {
			out = append(out, o)
		}
	}
	return out
}

// IsEmpty reports whether the period has no occurrences at all.
func IsEmpty(reminders map[string]domain.Reminder, p occurrence.Period, ref time.Time) bool {
	return len(occurrence.ExpandPeriod(reminders, p, ref)) == 0
}

// DayGroup holds the occurrences of one calendar day.
type DayGroup struct {
	Date        civil.Date
	Occurrences []domain.Occurrence
}

// CalendarWindow is the span calendar grids expand: one year either side of now.
func CalendarWindow(now time.Time) occurrence.Window {
	return occurrence.Window{
		Start: now.AddDate(-1, 0, 0),
		End:   now.AddDate(1, 0, 0),
	}
}

// Calendar expands an explicit window and groups the result by day.
func Calendar(reminders map[string]domain.Reminder, w occurrence.Window) []DayGroup {
	return GroupByDay(occurrence.Sorted(occurrence.ExpandCalendar(reminders, w.Start, w.End)))
}

// GroupByDay groups sorted occurrences by the calendar day of each
// occurrence in its own location.
func GroupByDay(sorted []domain.Occurrence) []DayGroup {
	var groups []DayGroup
	for _, o := range sorted {
		d := civil.DateOf(o.At)
		if n := len(groups); n > 0 && groups[n-1].Date == d {
			groups[n-1].Occurrences = append(groups[n-1].Occurrences, o)
			continue
		}
		groups = append(groups, DayGroup{Date: d, Occurrences: []domain.Occurrence{o}})
	}
	return groups
}
