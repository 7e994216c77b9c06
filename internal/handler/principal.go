package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const (
	userIDHeader  = "X-User-ID"
	alarmIDHeader = "X-Alarm-ID"
	// A caretaker may act for a linked senior. Link checks happen upstream.
	actAsQuery = "user_id"
)

// principal resolves the user a request acts for and aborts with 401 when the
// caller is anonymous.
func principal(c *gin.Context) (string, bool) {
	caller := c.GetHeader(userIDHeader)
	if caller == "" {
		respondError(c, http.StatusUnauthorized, errTypeUnauthorized, userIDHeader+" header is required")
		return "", false
	}
	if target := c.Query(actAsQuery); target != "" {
		return target, true
	}
	return caller, true
}
