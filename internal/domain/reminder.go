package domain

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

func (p Priority) String() string {
	return string(p)
}

// ParsePriority accepts the stored names case-insensitively. Empty input is Low.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "low":
		return PriorityLow, nil
	case "medium":
		return PriorityMedium, nil
	case "high":
		return PriorityHigh, nil
	default:
		return PriorityLow, fmt.Errorf("%w: %q", ErrInvalidPriority, s)
	}
}

const (
	AuthorUser      = "user"
	AuthorCaregiver = "caregiver"
)

type Reminder struct {
	ID                  string
	UserID              string
	Anchor              time.Time
	Title               string
	Description         string
	Recurrence          RecurrenceRule
	Priority            Priority
	IsComplete          bool
	IsLocked            bool
	Author              string
	DeletedInstances    map[civil.Date]struct{}
	CaretakerAlertDelay time.Duration
}

// NewReminder returns a reminder with the document defaults applied.
func NewReminder(id, userID string, anchor time.Time, title string) *Reminder {
	return &Reminder{
		ID:               id,
		UserID:           userID,
		Anchor:           anchor,
		Title:            title,
		Recurrence:       RecurrenceRule{Kind: RecurrenceNone},
		Priority:         PriorityLow,
		Author:           AuthorUser,
		DeletedInstances: make(map[civil.Date]struct{}),
	}
}

// IsDeleted reports whether the calendar day of t, in t's location, has been
// suppressed.
func (r *Reminder) IsDeleted(t time.Time) bool {
	if len(r.DeletedInstances) == 0 {
		return false
	}
	_, ok := r.DeletedInstances[civil.DateOf(t)]
	return ok
}

func (r *Reminder) DeleteInstance(d civil.Date) {
	if r.DeletedInstances == nil {
		r.DeletedInstances = make(map[civil.Date]struct{})
	}
	r.DeletedInstances[d] = struct{}{}
}

// DeletedDates returns the suppressed days in ascending order.
func (r *Reminder) DeletedDates() []civil.Date {
	dates := make([]civil.Date, 0, len(r.DeletedInstances))
	for d := range r.DeletedInstances {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool {
		return dates[i].Before(dates[j])
	})
	return dates
}

// IsForever reports whether the reminder needs sliding alarm batches.
func (r *Reminder) IsForever() bool {
	return r.Recurrence.Until.IsForever()
}

// Clone copies the reminder including its deleted instance set.
func (r *Reminder) Clone() Reminder {
	c := *r
	if r.DeletedInstances != nil {
		c.DeletedInstances = make(map[civil.Date]struct{}, len(r.DeletedInstances))
		for d := range r.DeletedInstances {
			c.DeletedInstances[d] = struct{}{}
		}
	}
	if r.Recurrence.CustomPatterns != nil {
		c.Recurrence.CustomPatterns = append([]string(nil), r.Recurrence.CustomPatterns...)
	}
	return c
}
