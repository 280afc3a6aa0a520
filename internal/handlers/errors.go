package handlers

import (
	"errors"
	"net/http"

	"eight_sleep_local/internal/entity"
	"eight_sleep_local/internal/service"

	"github.com/gin-gonic/gin"
)

// statusFor maps a service error to its HTTP status.
// Anything that is not a lookup or input error is a companion failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrUnsupported):
		return http.StatusMethodNotAllowed
	case entity.IsInvalid(err), service.IsInvalidFilter(err):
		return http.StatusBadRequest
	default:
		return http.StatusBadGateway
	}
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		if httpCode >= http.StatusInternalServerError {
			h.log.Errorw(logKey, fields...)
		} else {
			h.log.Infow(logKey, fields...)
		}
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// respondError maps err and reports its message to the client.
func (h *Handler) respondError(c *gin.Context, logKey string, err error, kv ...interface{}) {
	h.logAndJSONError(c, statusFor(err), err.Error(), logKey, err, kv...)
}
