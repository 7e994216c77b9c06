package occurrence

import (
	"time"

	"github.com/AdheeshBhat/Remora/internal/domain"
	"github.com/AdheeshBhat/Remora/internal/service/pattern"
)

// NextAfter returns the first occurrence of r strictly after `after` that
// the until policy still allows. Deleted instances are not filtered.
func NextAfter(r *domain.Reminder, after time.Time) (time.Time, bool) {
	var (
		next time.Time
		ok   bool
	)

	switch kind := r.Recurrence.Kind; {
	case kind == domain.RecurrenceCustom:
		next, ok = nextCustom(r, after)
	case kind.IsPeriodic():
		n := indexAtOrAfter(kind, r.Anchor, after.Add(time.Nanosecond))
		next = At(kind, r.Anchor, n)
		ok = next.After(after)
	default:
		next, ok = r.Anchor, r.Anchor.After(after)
	}

	if !ok || r.Recurrence.Until.Excludes(dateIn(next, r.Anchor.Location())) {
		return time.Time{}, false
	}
	return next, true
}

// nextCustom mirrors expandCustom: the anchor month only contributes the
// anchor itself, pattern matches start in the following month.
func nextCustom(r *domain.Reminder, after time.Time) (time.Time, bool) {
	if r.Anchor.After(after) {
		return r.Anchor, true
	}

	loc := r.Anchor.Location()
	monthAfterAnchor := time.Date(r.Anchor.Year(), r.Anchor.Month(), 1, 0, 0, 0, 0, loc).AddDate(0, 1, 0)
	from := after
	if from.Before(monthAfterAnchor) {
		from = monthAfterAnchor.Add(-time.Nanosecond)
	}

	var best time.Time
	for _, p := range pattern.ParseAll(r.Recurrence.CustomPatterns) {
		candidate, ok := p.NextAfter(from, r.Anchor)
		if !ok {
			continue
		}
		if best.IsZero() || candidate.Before(best) {
			best = candidate
		}
	}
	return best, !best.IsZero()
}

// Triggers lists up to limit concrete fire times at or after from, skipping
// deleted instances and stopping at the until date.
func Triggers(r *domain.Reminder, from time.Time, limit int) []time.Time {
	if limit <= 0 {
		return nil
	}

	out := make([]time.Time, 0, limit)
	budget := limit + len(r.DeletedInstances) + 1
	cursor := from.Add(-time.Nanosecond)

	for i := 0; i < budget && len(out) < limit; i++ {
		next, ok := NextAfter(r, cursor)
		if !ok || !next.After(cursor) {
			break
		}
		cursor = next
		if r.IsDeleted(next) {
			continue
		}
		out = append(out, next)
	}
	return out
}
