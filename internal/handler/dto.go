package handler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/AdheeshBhat/Remora/internal/domain"
	"github.com/AdheeshBhat/Remora/internal/service/alarm"
	"github.com/AdheeshBhat/Remora/internal/service/views"
)

type repeatBody struct {
	Type     string   `json:"type"`
	Until    string   `json:"until,omitempty"`
	Patterns []string `json:"patterns,omitempty"`
}

type reminderRequest struct {
	Title                      string      `json:"title" binding:"required"`
	Description                string      `json:"description"`
	Date                       time.Time   `json:"date" binding:"required"`
	Priority                   string      `json:"priority"`
	IsComplete                 bool        `json:"is_complete"`
	IsLocked                   bool        `json:"is_locked"`
	Author                     string      `json:"author"`
	Repeat                     *repeatBody `json:"repeat"`
	DeletedInstances           []string    `json:"deleted_instances"`
	CaretakerAlertDelaySeconds int64       `json:"caretaker_alert_delay_seconds"`
}

// toDomain builds the reminder the request describes. The anchor is moved
// into loc so recurrence arithmetic happens on the user's wall clock.
func (req *reminderRequest) toDomain(userID, id string, loc *time.Location) (*domain.Reminder, error) {
	r := domain.NewReminder(id, userID, req.Date.In(loc), req.Title)
	r.Description = req.Description
	r.IsComplete = req.IsComplete
	r.IsLocked = req.IsLocked
	r.CaretakerAlertDelay = time.Duration(req.CaretakerAlertDelaySeconds) * time.Second

	priority, err := domain.ParsePriority(req.Priority)
	if err != nil {
		return nil, err
	}
	r.Priority = priority

	switch strings.ToLower(req.Author) {
	case "", domain.AuthorUser:
		r.Author = domain.AuthorUser
	case domain.AuthorCaregiver:
		r.Author = domain.AuthorCaregiver
	default:
		return nil, fmt.Errorf("%w: author %q", domain.ErrInvalidFieldValue, req.Author)
	}

	if req.Repeat != nil {
		until, err := domain.ParseUntilPolicy(req.Repeat.Until)
		if err != nil {
			return nil, err
		}
		rule := domain.NewRecurrenceRule(domain.ParseRecurrenceKind(req.Repeat.Type), until, req.Repeat.Patterns)
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		r.Recurrence = rule
	}

	for _, s := range req.DeletedInstances {
		d, err := civil.ParseDate(s)
		if err != nil {
			return nil, fmt.Errorf("%w: deleted instance %q", domain.ErrInvalidFieldValue, s)
		}
		r.DeleteInstance(d)
	}

	return r, nil
}

type reminderResponse struct {
	ID                         string     `json:"id"`
	UserID                     string     `json:"user_id"`
	Title                      string     `json:"title"`
	Description                string     `json:"description,omitempty"`
	Date                       time.Time  `json:"date"`
	Priority                   string     `json:"priority"`
	IsComplete                 bool       `json:"is_complete"`
	IsLocked                   bool       `json:"is_locked"`
	Author                     string     `json:"author"`
	Repeat                     repeatBody `json:"repeat"`
	DeletedInstances           []string   `json:"deleted_instances"`
	CaretakerAlertDelaySeconds int64      `json:"caretaker_alert_delay_seconds,omitempty"`
}

func toReminderResponse(r *domain.Reminder) reminderResponse {
	deleted := make([]string, 0, len(r.DeletedInstances))
	for _, d := range r.DeletedDates() {
		deleted = append(deleted, d.String())
	}

	return reminderResponse{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Date:        r.Anchor,
		Priority:    r.Priority.String(),
		IsComplete:  r.IsComplete,
		IsLocked:    r.IsLocked,
		Author:      r.Author,
		Repeat: repeatBody{
			Type:     r.Recurrence.Kind.String(),
			Until:    r.Recurrence.Until.String(),
			Patterns: r.Recurrence.CustomPatterns,
		},
		DeletedInstances:           deleted,
		CaretakerAlertDelaySeconds: int64(r.CaretakerAlertDelay / time.Second),
	}
}

type mutationResponse struct {
	Reminder   reminderResponse `json:"reminder"`
	Alarms     *alarm.Result    `json:"alarms,omitempty"`
	AlarmError string           `json:"alarm_error,omitempty"`
}

type occurrenceResponse struct {
	ReminderID  string    `json:"reminder_id"`
	InstanceKey string    `json:"instance_key"`
	At          time.Time `json:"at"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Priority    string    `json:"priority"`
	IsComplete  bool      `json:"is_complete"`
	Repeat      string    `json:"repeat"`
}

func toOccurrenceResponses(occurrences []domain.Occurrence) []occurrenceResponse {
	out := make([]occurrenceResponse, 0, len(occurrences))
	for _, o := range occurrences {
		out = append(out, occurrenceResponse{
			ReminderID:  o.SourceReminderID,
			InstanceKey: o.InstanceKey,
			At:          o.At,
			Title:       o.Reminder.Title,
			Description: o.Reminder.Description,
			Priority:    o.Reminder.Priority.String(),
			IsComplete:  o.Reminder.IsComplete,
			Repeat:      o.Reminder.Recurrence.Kind.String(),
		})
	}
	return out
}

type viewResponse struct {
	Period      string               `json:"period"`
	Start       time.Time            `json:"start"`
	End         time.Time            `json:"end"`
	Empty       bool                 `json:"empty"`
	Occurrences []occurrenceResponse `json:"occurrences"`
}

type dayResponse struct {
	Date        string               `json:"date"`
	Occurrences []occurrenceResponse `json:"occurrences"`
}

type calendarResponse struct {
	Start time.Time     `json:"start"`
	End   time.Time     `json:"end"`
	Days  []dayResponse `json:"days"`
}

func toDayResponses(groups []views.DayGroup) []dayResponse {
	out := make([]dayResponse, 0, len(groups))
	for _, g := range groups {
		out = append(out, dayResponse{
			Date:        g.Date.String(),
			Occurrences: toOccurrenceResponses(g.Occurrences),
		})
	}
	return out
}

type pendingResponse struct {
	UserID string                `json:"user_id"`
	Count  int                   `json:"count"`
	Alarms []domain.PendingAlarm `json:"alarms"`
}

func sortPending(pending []domain.PendingAlarm) {
	sort.Slice(pending, func(i, j int) bool {
		if !pending[i].FireAt.Equal(pending[j].FireAt) {
			return pending[i].FireAt.Before(pending[j].FireAt)
		}
		return pending[i].ID < pending[j].ID
	})
}
