package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	"github.com/AdheeshBhat/Remora/internal/domain"
	"github.com/AdheeshBhat/Remora/internal/service/alarm"
)

// AlarmScheduler keeps platform alarms in line with stored reminders.
type AlarmScheduler interface {
	Schedule(ctx context.Context, r *domain.Reminder) (*alarm.Result, error)
	Cancel(ctx context.Context, userID, reminderID string) error
}

type ReminderHandler struct {
	repo      domain.ReminderRepository
	scheduler AlarmScheduler
	location  *time.Location
}

func NewReminderHandler(repo domain.ReminderRepository, scheduler AlarmScheduler, loc *time.Location) *ReminderHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ReminderHandler{
		repo:      repo,
		scheduler: scheduler,
		location:  loc,
	}
}

func (h *ReminderHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/reminders", h.HandleCreate)
	rg.GET("/reminders", h.HandleList)
	rg.GET("/reminders/:id", h.HandleGet)
	rg.PUT("/reminders/:id", h.HandleReplace)
	rg.PATCH("/reminders/:id", h.HandlePatch)
	rg.DELETE("/reminders/:id", h.HandleDelete)
	rg.POST("/reminders/:id/complete", h.HandleComplete)
	rg.POST("/reminders/:id/instances/:date/delete", h.HandleDeleteInstance)
}

func (h *ReminderHandler) HandleCreate(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := principal(c)
	if !ok {
		return
	}

	var req reminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errTypeInvalidRequest, err.Error())
		return
	}

	reminder, err := req.toDomain(userID, "", h.location)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	id, err := h.repo.Create(ctx, reminder)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	reminder.ID = id

	slog.InfoContext(ctx, "reminder created",
		slog.String("reminder_id", id),
		slog.String("user_id", userID),
		slog.String("repeat", reminder.Recurrence.Kind.String()),
	)

	c.JSON(http.StatusCreated, h.reschedule(ctx, reminder))
}

func (h *ReminderHandler) HandleList(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}

	reminders, err := h.repo.ListForUser(c.Request.Context(), userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	out := make([]reminderResponse, 0, len(reminders))
	for _, id := range sortedIDs(reminders) {
		r := reminders[id]
		out = append(out, toReminderResponse(&r))
	}
	c.JSON(http.StatusOK, gin.H{"reminders": out})
}

func (h *ReminderHandler) HandleGet(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}

	reminder, err := h.repo.Get(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, toReminderResponse(reminder))
}

func (h *ReminderHandler) HandleReplace(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := principal(c)
	if !ok {
		return
	}

	var req reminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, errTypeInvalidRequest, err.Error())
		return
	}

	id := c.Param("id")
	if _, err := h.repo.Get(ctx, userID, id); err != nil {
		respondDomainError(c, err)
		return
	}

	reminder, err := req.toDomain(userID, id, h.location)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	if err := h.repo.Set(ctx, reminder); err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.reschedule(ctx, reminder))
}

// HandlePatch applies a partial document update and reschedules from the
// stored result.
func (h *ReminderHandler) HandlePatch(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := principal(c)
	if !ok {
		return
	}

	var fields map[string]any
	if err := c.ShouldBindJSON(&fields); err != nil {
		respondError(c, http.StatusBadRequest, errTypeInvalidRequest, err.Error())
		return
	}
	if len(fields) == 0 {
		respondError(c, http.StatusBadRequest, errTypeInvalidRequest, "no fields to update")
		return
	}

	id := c.Param("id")
	if err := h.repo.UpdateFields(ctx, userID, id, fields); err != nil {
		respondDomainError(c, err)
		return
	}

	reminder, err := h.repo.Get(ctx, userID, id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.reschedule(ctx, reminder))
}

func (h *ReminderHandler) HandleComplete(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := principal(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := h.repo.UpdateFields(ctx, userID, id, map[string]any{"isComplete": true}); err != nil {
		respondDomainError(c, err)
		return
	}

	reminder, err := h.repo.Get(ctx, userID, id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	resp := mutationResponse{Reminder: toReminderResponse(reminder)}
	if err := h.scheduler.Cancel(ctx, userID, id); err != nil {
		slog.WarnContext(ctx, "failed to cancel alarms of completed reminder",
			slog.String("reminder_id", id),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		resp.AlarmError = err.Error()
	}
	c.JSON(http.StatusOK, resp)
}

// HandleDeleteInstance suppresses one calendar day of a recurring reminder.
func (h *ReminderHandler) HandleDeleteInstance(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := principal(c)
	if !ok {
		return
	}

	date, err := civil.ParseDate(c.Param("date"))
	if err != nil {
		respondError(c, http.StatusBadRequest, errTypeInvalidRequest, "date must be YYYY-MM-DD")
		return
	}

	id := c.Param("id")
	if err := h.repo.DeleteInstance(ctx, userID, id, date); err != nil {
		respondDomainError(c, err)
		return
	}

	reminder, err := h.repo.Get(ctx, userID, id)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, h.reschedule(ctx, reminder))
}

// HandleDelete removes the alarms first so a failed cancel never leaves
// alarms behind for a reminder that no longer exists.
func (h *ReminderHandler) HandleDelete(c *gin.Context) {
	ctx := c.Request.Context()

	userID, ok := principal(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if _, err := h.repo.Get(ctx, userID, id); err != nil {
		respondDomainError(c, err)
		return
	}

	if err := h.scheduler.Cancel(ctx, userID, id); err != nil {
		slog.ErrorContext(ctx, "failed to cancel alarms before delete",
			slog.String("reminder_id", id),
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusBadGateway, errTypePlatform, "failed to cancel pending alarms")
		return
	}

	if err := h.repo.Delete(ctx, userID, id); err != nil {
		respondDomainError(c, err)
		return
	}

	slog.InfoContext(ctx, "reminder deleted",
		slog.String("reminder_id", id),
		slog.String("user_id", userID),
	)
	c.Status(http.StatusNoContent)
}

// reschedule runs the scheduler for a stored reminder. The reminder is
// already persisted, so a scheduling failure is reported in the body rather
// than failing the request.
func (h *ReminderHandler) reschedule(ctx context.Context, reminder *domain.Reminder) mutationResponse {
	resp := mutationResponse{Reminder: toReminderResponse(reminder)}

	result, err := h.scheduler.Schedule(ctx, reminder)
	if err != nil {
		slog.WarnContext(ctx, "failed to schedule alarms",
			slog.String("reminder_id", reminder.ID),
			slog.String("user_id", reminder.UserID),
			slog.String("error", err.Error()),
		)
		resp.AlarmError = err.Error()
	}
	resp.Alarms = result
	return resp
}

func sortedIDs(reminders map[string]domain.Reminder) []string {
	ids := make([]string, 0, len(reminders))
	for id := range reminders {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
