package handlers

import (
	"errors"
	"net/http"
	"strings"

	"eight_sleep_local/internal/repository"
	"eight_sleep_local/internal/service"

	"github.com/gin-gonic/gin"
)

// Credentials is the body of both sign-up and sign-in.
type Credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// SignUpResponse answers a created account.
type SignUpResponse struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

func (h *Handler) bindCredentials(c *gin.Context, logKey string) (Credentials, bool) {
	var in Credentials
	if err := c.ShouldBindJSON(&in); err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, err.Error(), logKey, err)
		return in, false
	}
	in.Username = strings.TrimSpace(in.Username)
	return in, true
}

// @Summary      Sign up
// @Description  Accounts live in memory next to the users seeded from configuration.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      Credentials  true  "Credentials"
// @Success      201   {object}  SignUpResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /auth/sign-up [post]
func (h *Handler) signUp(c *gin.Context) {
	in, ok := h.bindCredentials(c, "auth_sign_up_bad_body")
	if !ok {
		return
	}

	id, err := h.services.SignUp(in.Username, in.Password)
	switch {
	case errors.Is(err, repository.ErrUserExists):
		h.logAndJSONError(c, http.StatusConflict, "username already taken", "auth_sign_up_conflict", err, "username", in.Username)
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusBadRequest, err.Error(), "auth_sign_up_failed", err, "username", in.Username)
		return
	}

	if h.log != nil {
		h.log.Infow("auth_user_created", "user_id", id, "username", in.Username)
	}
	c.JSON(http.StatusCreated, SignUpResponse{ID: id, Username: in.Username})
}

// @Summary      Sign in
// @Description  Returns an HS256 bearer token for /api/v1, valid for auth.token_ttl.
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      Credentials  true  "Credentials"
// @Success      200   {object}  service.Token
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/sign-in [post]
func (h *Handler) signIn(c *gin.Context) {
	in, ok := h.bindCredentials(c, "auth_sign_in_bad_body")
	if !ok {
		return
	}

	token, err := h.services.GenerateToken(in.Username, in.Password)
	switch {
	case errors.Is(err, service.ErrUserNotFound), errors.Is(err, service.ErrInvalidPassword):
		h.logAndJSONError(c, http.StatusUnauthorized, "invalid credentials", "auth_sign_in_rejected", err, "username", in.Username)
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, "could not issue token", "auth_sign_in_failed", err, "username", in.Username)
		return
	}

	c.JSON(http.StatusOK, token)
}
