package handlers

import (
	"errors"
	"net/http"
	"strings"

	"eight_sleep_local/internal/service"

	"github.com/gin-gonic/gin"
)

// Context keys set for authenticated requests.
const (
	ctxUserID   = "userId"
	ctxUsername = "username"
)

var (
	errMissingAuthHeader = errors.New("missing Authorization header")
	errBadAuthHeader     = errors.New("invalid Authorization header format")
)

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
// The scheme is case-insensitive.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errMissingAuthHeader
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	token = strings.TrimSpace(token)
	if !ok || !strings.EqualFold(scheme, "Bearer") || token == "" {
		return "", errBadAuthHeader
	}
	return token, nil
}

// userIdMiddleware requires a bearer token on /api/v1 unless auth is disabled,
// and stores the token's user id and username in the context.
func (h *Handler) userIdMiddleware(c *gin.Context) {
	if !h.authEnabled {
		c.Next()
		return
	}

	token, err := bearerToken(c.GetHeader("Authorization"))
	if err != nil {
		h.logAndJSONError(c, http.StatusUnauthorized, err.Error(), "auth_header_rejected", err, "path", c.FullPath())
		c.Abort()
		return
	}

	id, err := h.services.ParseToken(token)
	if err != nil {
		h.logAndJSONError(c, http.StatusUnauthorized, "invalid or expired token", "auth_token_rejected", err, "path", c.FullPath())
		c.Abort()
		return
	}

	c.Set(ctxUserID, id.UserID)
	c.Set(ctxUsername, id.Username)
	c.Next()
}

// identity returns the caller resolved by userIdMiddleware, if any.
func identity(c *gin.Context) (service.Identity, bool) {
	name := c.GetString(ctxUsername)
	if name == "" {
		return service.Identity{}, false
	}
	return service.Identity{UserID: c.GetInt(ctxUserID), Username: name}, true
}
