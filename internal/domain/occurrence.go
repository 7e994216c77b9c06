package domain

import "time"

// Occurrence is one concrete instance derived from a reminder. Reminder is a
// snapshot whose Anchor equals At.
type Occurrence struct {
	SourceReminderID string
	InstanceKey      string
	At               time.Time
	Reminder         Reminder
}

func NewOccurrence(r *Reminder, key string, at time.Time) Occurrence {
	snapshot := r.Clone()
	snapshot.Anchor = at
	return Occurrence{
		SourceReminderID: r.ID,
		InstanceKey:      key,
		At:               at,
		Reminder:         snapshot,
	}
}
