package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"eight_sleep_local/internal/entity"

	"github.com/gin-gonic/gin"
)

const (
	statusOK = "ok"

	errInvalidBodyPref = "invalid body: "
)

// commandRequest carries the optional arguments of an entity command.
type commandRequest struct {
	Value       *float64 `json:"value,omitempty"`
	Option      string   `json:"option,omitempty"`
	Text        string   `json:"text,omitempty"`
	HVACMode    string   `json:"hvac_mode,omitempty"`
	Temperature *float64 `json:"temperature,omitempty"`
}

// CommandRequest is an exported model for Swagger docs of the entity command payload.
type CommandRequest struct {
	// Numeric value for set_value
	Value *float64 `json:"value,omitempty" example:"85"`
	// Option for select_option. Allowed: double, rise
	Option string `json:"option,omitempty" example:"rise"`
	// JSON alarm schedule for set_text
	Text string `json:"text,omitempty" example:"{\"monday\":{\"time\":\"07:00\",\"enabled\":true}}"`
	// Mode for set_hvac_mode. Allowed: off, heat_cool
	HVACMode string `json:"hvac_mode,omitempty" example:"heat_cool"`
	// Fahrenheit target for set_temperature
	Temperature *float64 `json:"temperature,omitempty" example:"80"`
}

func knownCommand(name string) bool {
	for _, c := range entity.Commands {
		if c == name {
			return true
		}
	}
	return false
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      List entity states
// @Tags         entities
// @Produce      json
// @Param        platform  query  string  false  "Platform filter"  Enums(sensor,binary_sensor,switch,number,button,select,text,climate)
// @Success      200  {object}  map[string]interface{}  "count, entities"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Router       /api/v1/entities [get]
// @Security     BearerAuth
func (h *Handler) listEntities(c *gin.Context) {
	platform := c.Query("platform")
	states, err := h.services.Entities.ListStates(c.Request.Context(), platform)
	if err != nil {
		h.respondError(c, "entities_list_failed", err, "platform", platform)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":    len(states),
		"entities": states,
	})
}

// @Summary      Get entity state
// @Tags         entities
// @Produce      json
// @Param        id   path  string  true  "Entity ID"  example(eight_sleep_left_power)
// @Success      200  {object}  models.EntityState
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/entities/{id} [get]
// @Security     BearerAuth
func (h *Handler) getEntity(c *gin.Context) {
	id := c.Param("id")
	st, err := h.services.Entities.GetState(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, "entity_get_failed", err, "entity_id", id)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Run entity command
// @Description  Commands: turn_on, turn_off, set_value, press, select_option, set_text, set_temperature, set_hvac_mode, update. The body is optional for commands without arguments.
// @Tags         entities
// @Accept       json
// @Produce      json
// @Param        id       path  string          true   "Entity ID"  example(eight_sleep_left_temperature)
// @Param        command  path  string          true   "Command"    Enums(turn_on,turn_off,set_value,press,select_option,set_text,set_temperature,set_hvac_mode,update)
// @Param        body     body  CommandRequest  false  "Command arguments"
// @Success      200  {object}  map[string]interface{}  "status, state"
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      405  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/entities/{id}/{command} [post]
// @Security     BearerAuth
func (h *Handler) entityCommand(c *gin.Context) {
	id := c.Param("id")
	name := strings.ToLower(c.Param("command"))
	if !knownCommand(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown command %q", name)})
		return
	}

	var req commandRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	st, err := h.services.Entities.Execute(c.Request.Context(), id, entity.Command{
		Name:        name,
		Value:       req.Value,
		Option:      req.Option,
		Text:        req.Text,
		HVACMode:    req.HVACMode,
		Temperature: req.Temperature,
	})
	who, _ := identity(c)
	if err != nil {
		h.respondError(c, "entity_command_failed", err, "entity_id", id, "command", name, "username", who.Username)
		return
	}
	if h.log != nil {
		h.log.Infow("entity_command_done", "entity_id", id, "command", name, "username", who.Username)
	}
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
		"state":  st,
	})
}
