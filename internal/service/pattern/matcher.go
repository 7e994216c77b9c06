package pattern

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// SearchMonths bounds forward scans for the next matching date.
const SearchMonths = 12

var ErrMalformedPattern = errors.New("malformed custom pattern")

var ordinalPrefixes = []struct {
	prefix  string
	ordinal int
}{
	{prefix: "1st", ordinal: 1},
	{prefix: "2nd", ordinal: 2},
	{prefix: "3rd", ordinal: 3},
	{prefix: "4th", ordinal: 4},
}

var weekdayNames = map[string]time.Weekday{
	"Sun": time.Sunday,
	"Mon": time.Monday,
	"Tue": time.Tuesday,
	"Wed": time.Wednesday,
	"Thu": time.Thursday,
	"Fri": time.Friday,
	"Sat": time.Saturday,
}

// Pattern is "the Nth weekday W of a month", written as e.g. "2nd Tue".
type Pattern struct {
	Ordinal int
	Weekday time.Weekday
}

func Parse(s string) (Pattern, error) {
	fields := strings.Fields(s)
	if len(fields) != 2 {
		return Pattern{}, fmt.Errorf("%w: %q", ErrMalformedPattern, s)
	}

	ordinal := 0
	for _, o := range ordinalPrefixes {
		if strings.HasPrefix(fields[0], o.prefix) {
			ordinal = o.ordinal
			break
		}
	}
	if ordinal == 0 {
		return Pattern{}, fmt.Errorf("%w: unknown ordinal %q", ErrMalformedPattern, fields[0])
	}

	weekday, ok := weekdayNames[fields[1]]
	if !ok {
		return Pattern{}, fmt.Errorf("%w: unknown weekday %q", ErrMalformedPattern, fields[1])
	}

	return Pattern{Ordinal: ordinal, Weekday: weekday}, nil
}

func (p Pattern) String() string {
	for _, o := range ordinalPrefixes {
		if o.ordinal == p.Ordinal {
			return o.prefix + " " + p.Weekday.String()[:3]
		}
	}
	return ""
}

// In returns the date of the pattern in the given month, or false when the
// month has fewer than Ordinal such weekdays.
func (p Pattern) In(year int, month time.Month) (civil.Date, bool) {
	count := 0
	for day := 1; day <= 31; day++ {
		d := civil.Date{Year: year, Month: month, Day: day}
		if !d.IsValid() {
			break
		}
		if d.In(time.UTC).Weekday() != p.Weekday {
			continue
		}
		count++
		if count == p.Ordinal {
			return d, true
		}
	}
	return civil.Date{}, false
}

// NextAfter returns the first match strictly after `after`, using the hour,
// minute and location of tod. Seconds are dropped.
func (p Pattern) NextAfter(after, tod time.Time) (time.Time, bool) {
	loc := tod.Location()
	local := after.In(loc)
	first := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)

	for i := 0; i < SearchMonths; i++ {
		month := first.AddDate(0, i, 0)
		d, ok := p.In(month.Year(), month.Month())
		if !ok {
			continue
		}
		candidate := time.Date(d.Year, d.Month, d.Day, tod.Hour(), tod.Minute(), 0, 0, loc)
		if candidate.After(after) {
			return candidate, true
		}
	}
	return time.Time{}, false
}

// Resolve returns the date pattern s names in the given month. Malformed
// patterns resolve to nothing.
func Resolve(s string, year int, month time.Month) (civil.Date, bool) {
	p, err := Parse(s)
	if err != nil {
		return civil.Date{}, false
	}
	return p.In(year, month)
}

// ResolveNext scans up to SearchMonths months starting at now's month and
// returns the first match strictly after now, at from's time of day.
func ResolveNext(s string, from, now time.Time) (time.Time, bool) {
	p, err := Parse(s)
	if err != nil {
		return time.Time{}, false
	}
	return p.NextAfter(now, from)
}

// ParseAll parses every well-formed pattern and drops the rest.
func ParseAll(patterns []string) []Pattern {
	out := make([]Pattern, 0, len(patterns))
	for _, s := range patterns {
		p, err := Parse(s)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out
}
