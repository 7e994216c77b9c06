package handler

import (
	"bytes"
	"context"
	"net/http"
	"strconv"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	"github.com/AdheeshBhat/Remora/internal/domain"
	"github.com/AdheeshBhat/Remora/internal/observability/metrics"
	"github.com/AdheeshBhat/Remora/internal/service/calexport"
	"github.com/AdheeshBhat/Remora/internal/service/occurrence"
	"github.com/AdheeshBhat/Remora/internal/service/views"
)

const icsContentType = "text/calendar; charset=utf-8"

// ViewHandler serves read-only projections of a user's reminders.
type ViewHandler struct {
	repo     domain.ReminderRepository
	metrics  *metrics.AlarmMetrics
	location *time.Location
	clock    func() time.Time
}

func NewViewHandler(repo domain.ReminderRepository, alarmMetrics *metrics.AlarmMetrics, loc *time.Location, clock func() time.Time) *ViewHandler {
	if loc == nil {
		loc = time.Local
	}
	if clock == nil {
		clock = time.Now
	}
	return &ViewHandler{
		repo:     repo,
		metrics:  alarmMetrics,
		location: loc,
		clock:    clock,
	}
}

func (h *ViewHandler) Register(rg *gin.RouterGroup) {
	rg.GET("/views/:period", h.HandleView)
	rg.GET("/calendar", h.HandleCalendar)
	rg.GET("/calendar/export.ics", h.HandleExport)
}

// HandleView lists the occurrences of a day, week or month around ?date=.
func (h *ViewHandler) HandleView(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := principal(c)
	if !ok {
		return
	}

	period, err := occurrence.ParsePeriod(c.Param("period"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	ref := h.clock().In(h.location)
	if raw := c.Query("date"); raw != "" {
		d, err := civil.ParseDate(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, errTypeInvalidRequest, "date must be YYYY-MM-DD")
			return
		}
		ref = d.In(h.location)
	}

	incomplete := false
	if raw := c.Query("incomplete"); raw != "" {
		incomplete, err = strconv.ParseBool(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, errTypeInvalidRequest, "incomplete must be a boolean")
			return
		}
	}

	reminders, err := h.repo.ListForUser(ctx, userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	start := time.Now()
	var list []domain.Occurrence
	if incomplete {
		list = views.Incomplete(reminders, period, ref)
	} else {
		list = views.All(reminders, period, ref)
	}
	h.recordExpansion(ctx, string(period), start, len(list))

	w := occurrence.PeriodWindow(period, ref)
	c.JSON(http.StatusOK, viewResponse{
		Period:      string(period),
		Start:       w.Start,
		End:         w.End,
		Empty:       len(list) == 0,
		Occurrences: toOccurrenceResponses(list),
	})
}

// HandleCalendar groups occurrences by day over ?start= .. ?end=, one year
// either side of now by default.
func (h *ViewHandler) HandleCalendar(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := principal(c)
	if !ok {
		return
	}

	w := views.CalendarWindow(h.clock().In(h.location))
	if raw := c.Query("start"); raw != "" {
		t, err := h.parseBound(raw, false)
		if err != nil {
			respondError(c, http.StatusBadRequest, errTypeInvalidRequest, "start must be YYYY-MM-DD or RFC3339")
			return
		}
		w.Start = t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := h.parseBound(raw, true)
		if err != nil {
			respondError(c, http.StatusBadRequest, errTypeInvalidRequest, "end must be YYYY-MM-DD or RFC3339")
			return
		}
		w.End = t
	}
	if w.End.Before(w.Start) {
		respondError(c, http.StatusBadRequest, errTypeInvalidRequest, "end must not be before start")
		return
	}

	reminders, err := h.repo.ListForUser(ctx, userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	start := time.Now()
	groups := views.Calendar(reminders, w)
	count := 0
	for _, g := range groups {
		count += len(g.Occurrences)
	}
	h.recordExpansion(ctx, "calendar", start, count)

	c.JSON(http.StatusOK, calendarResponse{
		Start: w.Start,
		End:   w.End,
		Days:  toDayResponses(groups),
	})
}

func (h *ViewHandler) HandleExport(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := principal(c)
	if !ok {
		return
	}

	reminders, err := h.repo.ListForUser(ctx, userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := calexport.Encode(&buf, calexport.Export(reminders, h.clock())); err != nil {
		respondDomainError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="reminders.ics"`)
	c.Data(http.StatusOK, icsContentType, buf.Bytes())
}

// parseBound accepts a date or an RFC3339 instant. A bare date used as an end
// bound covers the whole day.
func (h *ViewHandler) parseBound(raw string, end bool) (time.Time, error) {
	if d, err := civil.ParseDate(raw); err == nil {
		if end {
			return time.Date(d.Year, d.Month, d.Day, 23, 59, 59, 0, h.location), nil
		}
		return d.In(h.location), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(h.location), nil
}

func (h *ViewHandler) recordExpansion(ctx context.Context, variant string, start time.Time, count int) {
	if h.metrics != nil {
		h.metrics.RecordExpansion(ctx, variant, time.Since(start), count)
	}
}
