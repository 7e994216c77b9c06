package handler

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AdheeshBhat/Remora/internal/domain"
	"github.com/AdheeshBhat/Remora/internal/infra/alarmqueue"
	"github.com/AdheeshBhat/Remora/internal/service/alarm"
)

const maxFiredBodyBytes = 64 << 10

// AlarmRefresher tops up a user's forever batches and consumes fired alarms.
type AlarmRefresher interface {
	Refresh(ctx context.Context, userID string) (*alarm.RefreshResult, error)
	HandleFired(ctx context.Context, alarmID string, payload domain.AlarmPayload) error
}

type AlarmHandler struct {
	service  AlarmRefresher
	platform domain.PlatformScheduler
}

func NewAlarmHandler(service AlarmRefresher, platform domain.PlatformScheduler) *AlarmHandler {
	return &AlarmHandler{
		service:  service,
		platform: platform,
	}
}

func (h *AlarmHandler) Register(rg *gin.RouterGroup) {
	rg.POST("/alarms/refresh", h.HandleRefresh)
	rg.POST("/alarms/fired", h.HandleFired)
	rg.GET("/alarms/pending", h.HandlePending)
}

func (h *AlarmHandler) HandleRefresh(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}

	result, err := h.service.Refresh(c.Request.Context(), userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleFired is the platform callback. The body is the queued alarm record;
// anything undecodable is rejected so the platform does not retry it forever.
func (h *AlarmHandler) HandleFired(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxFiredBodyBytes))
	if err != nil {
		respondError(c, http.StatusBadRequest, errTypeInvalidRequest, "failed to read body")
		return
	}

	fired, err := alarmqueue.DecodeAlarm(body)
	if err != nil {
		slog.WarnContext(ctx, "rejected fired callback",
			slog.String("error", err.Error()),
		)
		respondError(c, http.StatusBadRequest, errTypeInvalidRequest, err.Error())
		return
	}

	if !firedRecordMatches(c, fired) {
		slog.WarnContext(ctx, "fired callback does not match its headers",
			slog.String("alarm_id", fired.ID),
			slog.String("user_id", fired.UserID),
			slog.String("header_user_id", c.GetHeader(userIDHeader)),
		)
		respondError(c, http.StatusForbidden, errTypeForbidden, "alarm record does not match the caller")
		return
	}

	if err := h.service.HandleFired(ctx, fired.ID, fired.Payload); err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"alarm_id": fired.ID,
		"status":   "accepted",
	})
}

// firedRecordMatches checks the record against the headers the platform
// attaches to each task. Absent headers are not checked; the payload must
// always belong to the record's user.
func firedRecordMatches(c *gin.Context, fired domain.Alarm) bool {
	if user := c.GetHeader(userIDHeader); user != "" && user != fired.UserID {
		return false
	}
	if id := c.GetHeader(alarmIDHeader); id != "" && id != fired.ID {
		return false
	}
	return fired.Payload.UserID == "" || fired.Payload.UserID == fired.UserID
}

func (h *AlarmHandler) HandlePending(c *gin.Context) {
	userID, ok := principal(c)
	if !ok {
		return
	}

	pending, err := h.platform.ListPending(c.Request.Context(), userID)
	if err != nil {
		respondDomainError(c, err)
		return
	}
	sortPending(pending)

	c.JSON(http.StatusOK, pendingResponse{
		UserID: userID,
		Count:  len(pending),
		Alarms: pending,
	})
}
