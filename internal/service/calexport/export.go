package calexport

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/emersion/go-ical"
	"github.com/teambition/rrule-go"

	"github.com/AdheeshBhat/Remora/internal/domain"
	"github.com/AdheeshBhat/Remora/internal/service/occurrence"
	"github.com/AdheeshBhat/Remora/internal/service/pattern"
)

const (
	productID = "-//Remora//Reminders//EN"
	uidDomain = "remora"
)

var priorityValues = map[domain.Priority]int{
	domain.PriorityHigh:   1,
	domain.PriorityMedium: 5,
	domain.PriorityLow:    9,
}

var rruleWeekdays = map[time.Weekday]rrule.Weekday{
	time.Monday:    rrule.MO,
	time.Tuesday:   rrule.TU,
	time.Wednesday: rrule.WE,
	time.Thursday:  rrule.TH,
	time.Friday:    rrule.FR,
	time.Saturday:  rrule.SA,
	time.Sunday:    rrule.SU,
}

// Export renders the reminders as one VEVENT each, ordered by id. stamp is
// written as DTSTAMP.
func Export(reminders map[string]domain.Reminder, stamp time.Time) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, productID)

	ids := make([]string, 0, len(reminders))
	for id := range reminders {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		r := reminders[id]
		r.ID = id
		cal.Children = append(cal.Children, Event(&r, stamp).Component)
	}
	return cal
}

func Encode(w io.Writer, cal *ical.Calendar) error {
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	return nil
}

func Event(r *domain.Reminder, stamp time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, r.ID+"@"+uidDomain)
	event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, r.Anchor)
	event.Props.SetText(ical.PropSummary, r.Title)
	if r.Description != "" {
		event.Props.SetText(ical.PropDescription, r.Description)
	}

	if n, ok := priorityValues[r.Priority]; ok {
		prop := ical.NewProp(ical.PropPriority)
		prop.Value = strconv.Itoa(n)
		event.Props.Set(prop)
	}

	if r.IsComplete {
		event.Props.SetText(ical.PropStatus, "CANCELLED")
	}

	rec := recurrenceOf(r)
	if rec.rule == nil {
		return event
	}
	event.Props.SetRecurrenceRule(rec.rule)

	for _, t := range rec.rdates {
		addDateTime(event, ical.PropRecurrenceDates, t)
	}
	for _, d := range r.DeletedDates() {
		addDateTime(event, ical.PropExceptionDates, time.Date(d.Year, d.Month, d.Day, r.Anchor.Hour(), r.Anchor.Minute(), r.Anchor.Second(), 0, r.Anchor.Location()))
	}
	for _, t := range rec.exdates {
		addDateTime(event, ical.PropExceptionDates, t)
	}
	return event
}

func addDateTime(event *ical.Event, name string, t time.Time) {
	prop := ical.NewProp(name)
	prop.SetDateTime(t)
	event.Props.Add(prop)
}

type recurrence struct {
	rule    *rrule.ROption
	rdates  []time.Time
	exdates []time.Time
}

// recurrenceOf maps the rule onto an RRULE. A month-end day that has been
// clamped stays clamped, so monthly rules past the 28th settle on the 28th:
// the occurrences before that point are listed as RDATEs and the 28ths they
// replace as EXDATEs. Custom rules exclude the anchor-month matches because
// pattern matching starts in the month after the anchor.
func recurrenceOf(r *domain.Reminder) recurrence {
	anchor := r.Anchor
	opt := &rrule.ROption{}
	var rec recurrence

	switch r.Recurrence.Kind {
	case domain.RecurrenceDaily:
		opt.Freq = rrule.DAILY
	case domain.RecurrenceWeekly:
		opt.Freq = rrule.WEEKLY
	case domain.RecurrenceMonthly:
		opt.Freq = rrule.MONTHLY
		if anchor.Day() > 28 {
			opt.Bymonthday = []int{28}
			rec.rdates, rec.exdates = clampedLead(r)
		}
	case domain.RecurrenceYearly:
		opt.Freq = rrule.YEARLY
		if anchor.Month() == time.February && anchor.Day() == 29 {
			opt.Bymonth = []int{2}
			opt.Bymonthday = []int{28}
		}
	case domain.RecurrenceCustom:
		patterns := pattern.ParseAll(r.Recurrence.CustomPatterns)
		if len(patterns) == 0 {
			return rec
		}
		opt.Freq = rrule.MONTHLY
		for _, p := range patterns {
			wd := rruleWeekdays[p.Weekday]
			opt.Byweekday = append(opt.Byweekday, wd.Nth(p.Ordinal))
		}
		rec.exdates = anchorMonthMatches(patterns, anchor)
	default:
		return rec
	}

	rec.rule = withUntil(opt, r)
	return rec
}

// clampedLead lists the monthly occurrences after the anchor that fall on
// the 29th or 30th, together with the 28ths of the same months.
func clampedLead(r *domain.Reminder) (rdates, exdates []time.Time) {
	current := r.Anchor
	for {
		next, ok := occurrence.Step(domain.RecurrenceMonthly, current)
		if !ok || next.Day() <= 28 || r.Recurrence.Until.Excludes(civil.DateOf(next)) {
			return rdates, exdates
		}
		rdates = append(rdates, next)
		exdates = append(exdates, next.AddDate(0, 0, 28-next.Day()))
		current = next
	}
}

func withUntil(opt *rrule.ROption, r *domain.Reminder) *rrule.ROption {
	if d, ok := r.Recurrence.Until.Date(); ok {
		opt.Until = time.Date(d.Year, d.Month, d.Day, 23, 59, 59, 0, r.Anchor.Location()).UTC()
	}
	return opt
}

func anchorMonthMatches(patterns []pattern.Pattern, anchor time.Time) []time.Time {
	var out []time.Time
	for _, p := range patterns {
		d, ok := p.In(anchor.Year(), anchor.Month())
		if !ok {
			continue
		}
		t := time.Date(d.Year, d.Month, d.Day, anchor.Hour(), anchor.Minute(), anchor.Second(), 0, anchor.Location())
		if t.After(anchor) {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
