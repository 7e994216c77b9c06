package reminderstore

import (
	"log/slog"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/AdheeshBhat/Remora/internal/domain"
)

// Document field names. They follow the mobile client's documents so both
// can share a collection.
const (
	fieldMongoID             = "_id"
	fieldID                  = "ID"
	fieldUserID              = "user_id"
	fieldTitle               = "title"
	fieldDescription         = "description"
	fieldDate                = "date"
	fieldPriority            = "priority"
	fieldIsComplete          = "isComplete"
	fieldIsLocked            = "isLocked"
	fieldAuthor              = "author"
	fieldRepeatSettings      = "repeatSettings"
	fieldRepeatType          = "repeat_type"
	fieldRepeatUntilDate     = "repeat_until_date"
	fieldRepeatIntervals     = "repeatIntervals"
	fieldDays                = "days"
	fieldDeletedInstances    = "deletedInstances"
	fieldCaretakerAlertDelay = "caretakerAlertDelay"
)

type repeatIntervalsDoc struct {
	Days string `bson:"days"`
}

type repeatSettingsDoc struct {
	RepeatType      string             `bson:"repeat_type"`
	RepeatUntilDate string             `bson:"repeat_until_date"`
	RepeatIntervals repeatIntervalsDoc `bson:"repeatIntervals"`
}

type reminderDoc struct {
	MongoID             string             `bson:"_id"`
	ID                  any                `bson:"ID"` // number when written by the mobile client
	UserID              string             `bson:"user_id"`
	Title               string             `bson:"title"`
	Description         string             `bson:"description"`
	Date                time.Time          `bson:"date"`
	Priority            string             `bson:"priority"`
	IsComplete          bool               `bson:"isComplete"`
	IsLocked            bool               `bson:"isLocked"`
	Author              string             `bson:"author"`
	RepeatSettings      *repeatSettingsDoc `bson:"repeatSettings,omitempty"`
	DeletedInstances    []string           `bson:"deletedInstances"`
	CaretakerAlertDelay int64              `bson:"caretakerAlertDelay"`

	// Older documents kept the repeat fields at the top level.
	LegacyRepeatType      string `bson:"repeat_type,omitempty"`
	LegacyRepeatUntilDate string `bson:"repeat_until_date,omitempty"`
}

// decodeReminder is the only path from a stored document to a domain
// reminder. Absent fields take their defaults; unreadable values are logged
// and defaulted rather than failing the read.
func decodeReminder(doc *reminderDoc, loc *time.Location) *domain.Reminder {
	id, _ := doc.ID.(string)
	if id == "" {
		id = doc.MongoID
	}

	anchor := doc.Date
	if loc != nil {
		anchor = anchor.In(loc)
	}

	r := domain.NewReminder(id, doc.UserID, anchor, doc.Title)
	r.Description = doc.Description
	r.IsComplete = doc.IsComplete
	r.IsLocked = doc.IsLocked
	r.CaretakerAlertDelay = time.Duration(doc.CaretakerAlertDelay) * time.Second

	if doc.Author != "" {
		r.Author = doc.Author
	}

	priority, err := domain.ParsePriority(doc.Priority)
	if err != nil {
		slog.Warn("unreadable priority, using default",
			slog.String("reminder_id", id),
			slog.String("priority", doc.Priority),
		)
	}
	r.Priority = priority

	repeatType, untilRaw, days := doc.LegacyRepeatType, doc.LegacyRepeatUntilDate, ""
	if doc.RepeatSettings != nil {
		repeatType = doc.RepeatSettings.RepeatType
		untilRaw = doc.RepeatSettings.RepeatUntilDate
		days = doc.RepeatSettings.RepeatIntervals.Days
	}

	until, err := domain.ParseUntilPolicy(untilRaw)
	if err != nil {
		slog.Warn("unreadable repeat until date, treating as open",
			slog.String("reminder_id", id),
			slog.String("repeat_until_date", untilRaw),
		)
	}
	r.Recurrence = domain.NewRecurrenceRule(domain.ParseRecurrenceKind(repeatType), until, domain.SplitPatterns(days))

	for _, raw := range doc.DeletedInstances {
		d, err := civil.ParseDate(strings.TrimSpace(raw))
		if err != nil {
			slog.Warn("skipping unreadable deleted instance",
				slog.String("reminder_id", id),
				slog.String("date", raw),
			)
			continue
		}
		r.DeleteInstance(d)
	}

	return r
}

func encodeReminder(r *domain.Reminder) *reminderDoc {
	deleted := make([]string, 0, len(r.DeletedInstances))
	for _, d := range r.DeletedDates() {
		deleted = append(deleted, d.String())
	}

	author := r.Author
	if author == "" {
		author = domain.AuthorUser
	}
	priority := r.Priority
	if priority == "" {
		priority = domain.PriorityLow
	}

	return &reminderDoc{
		MongoID:     r.ID,
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Date:        r.Anchor,
		Priority:    priority.String(),
		IsComplete:  r.IsComplete,
		IsLocked:    r.IsLocked,
		Author:      author,
		RepeatSettings: &repeatSettingsDoc{
			RepeatType:      r.Recurrence.Kind.String(),
			RepeatUntilDate: r.Recurrence.Until.String(),
			RepeatIntervals: repeatIntervalsDoc{
				Days: domain.JoinPatterns(r.Recurrence.CustomPatterns),
			},
		},
		DeletedInstances:    deleted,
		CaretakerAlertDelay: int64(r.CaretakerAlertDelay / time.Second),
	}
}
