package occurrence

import (
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/civil"

	"github.com/AdheeshBhat/Remora/internal/domain"
	"github.com/AdheeshBhat/Remora/internal/service/pattern"
)

const (
	CalendarCap = 200
	ListCap     = 50

	dateKeyLayout = "2006-01-02T15:04"
)

// Options parameterizes Expand for its two callers.
type Options struct {
	// Cap bounds the instances produced per reminder.
	Cap int
	// ZeroIndexNone keys one-off reminders as "{id}-0" instead of "{id}".
	ZeroIndexNone bool
}

var (
	CalendarOptions = Options{Cap: CalendarCap}
	ListOptions     = Options{Cap: ListCap, ZeroIndexNone: true}
)

// Expand produces the occurrences of every reminder inside w, keyed by
// instance key. Reminder ids are taken from the map keys.
func Expand(reminders map[string]domain.Reminder, w Window, opts Options) map[string]domain.Occurrence {
	out := make(map[string]domain.Occurrence)
	if opts.Cap <= 0 {
		return out
	}

	for id, r := range reminders {
		r.ID = id
		expandReminder(&r, w, opts, out)
	}
	return out
}

// ExpandCalendar expands over an explicit window, as used by calendar grids.
func ExpandCalendar(reminders map[string]domain.Reminder, start, end time.Time) map[string]domain.Occurrence {
	return Expand(reminders, Window{Start: start, End: end}, CalendarOptions)
}

// ExpandPeriod expands over the day, week or month containing ref.
func ExpandPeriod(reminders map[string]domain.Reminder, p Period, ref time.Time) map[string]domain.Occurrence {
	return Expand(reminders, PeriodWindow(p, ref), ListOptions)
}

func expandReminder(r *domain.Reminder, w Window, opts Options, out map[string]domain.Occurrence) {
	switch kind := r.Recurrence.Kind; {
	case kind == domain.RecurrenceCustom:
		expandCustom(r, w, opts, out)
	case kind.IsPeriodic():
		expandPeriodic(r, w, opts, out)
	default:
		if !w.Contains(r.Anchor) || r.IsDeleted(r.Anchor) {
			return
		}
		key := r.ID
		if opts.ZeroIndexNone {
			key = indexKey(r.ID, 0)
		}
		out[key] = domain.NewOccurrence(r, key, r.Anchor)
	}
}

func expandPeriodic(r *domain.Reminder, w Window, opts Options, out map[string]domain.Occurrence) {
	kind := r.Recurrence.Kind
	n := indexAtOrAfter(kind, r.Anchor, w.Start)

	var prev time.Time
	if n > 0 {
		prev = At(kind, r.Anchor, n-1)
	}

	emitted := 0
	for ; ; n++ {
		current := At(kind, r.Anchor, n)
		if n > 0 && !current.After(prev) {
			return
		}
		prev = current

		if r.Recurrence.Until.Excludes(dateIn(current, r.Anchor.Location())) || current.After(w.End) {
			return
		}
		if r.IsDeleted(current) {
			continue
		}

		key := indexKey(r.ID, emitted)
		out[key] = domain.NewOccurrence(r, key, current)
		emitted++
		if emitted >= opts.Cap {
			return
		}
	}
}

func expandCustom(r *domain.Reminder, w Window, opts Options, out map[string]domain.Occurrence) {
	emitted := 0
	add := func(at time.Time) bool {
		if !w.Contains(at) || r.IsDeleted(at) {
			return true
		}
		if r.Recurrence.Until.Excludes(dateIn(at, r.Anchor.Location())) {
			return true
		}
		key := dateKey(r.ID, at)
		if _, dup := out[key]; dup {
			return true
		}
		out[key] = domain.NewOccurrence(r, key, at)
		emitted++
		return emitted < opts.Cap
	}

	if !add(r.Anchor) {
		return
	}

	patterns := pattern.ParseAll(r.Recurrence.CustomPatterns)
	if len(patterns) == 0 {
		return
	}

	loc := r.Anchor.Location()
	endLocal := w.End.In(loc)
	last := time.Date(endLocal.Year(), endLocal.Month(), 1, 0, 0, 0, 0, loc)
	month := time.Date(r.Anchor.Year(), r.Anchor.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)

	for ; !month.After(last); month = month.AddDate(0, 1, 0) {
		for _, p := range patterns {
			d, ok := p.In(month.Year(), month.Month())
			if !ok {
				continue
			}
			at := time.Date(d.Year, d.Month, d.Day, r.Anchor.Hour(), r.Anchor.Minute(), 0, 0, loc)
			if !add(at) {
				return
			}
		}
	}
}

// Sorted returns the occurrences ordered by time, ties broken by key.
func Sorted(occurrences map[string]domain.Occurrence) []domain.Occurrence {
	out := make([]domain.Occurrence, 0, len(occurrences))
	for _, o := range occurrences {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].InstanceKey < out[j].InstanceKey
		}
		return out[i].At.Before(out[j].At)
	})
	return out
}

func indexKey(id string, n int) string {
	return fmt.Sprintf("%s-%d", id, n)
}

func dateKey(id string, at time.Time) string {
	return id + "-" + at.Format(dateKeyLayout)
}

func dateIn(t time.Time, loc *time.Location) civil.Date {
	return civil.DateOf(t.In(loc))
}
