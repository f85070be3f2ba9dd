package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pastoral-familiar/pastoral-api/internal/dto"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
	appErrors "github.com/pastoral-familiar/pastoral-api/pkg/errors"
	"github.com/pastoral-familiar/pastoral-api/pkg/response"
)

type eventService interface {
	List(ctx context.Context) ([]models.EventView, error)
	ActiveEvents(ctx context.Context) ([]models.EventView, error)
	Get(ctx context.Context, id models.ID) (*models.EventView, error)
	Duplicate(ctx context.Context, id models.ID, req dto.DuplicateEventRequest) error
	ShareLink(ctx context.Context, id models.ID) (*dto.ShareLink, error)
	DriverTasks(ctx context.Context, driver models.Member) (*dto.DriverTasks, error)
}

// EventHandler exposes events and the driver mission view.
type EventHandler struct {
	service eventService
}

// NewEventHandler builds a new handler.
func NewEventHandler(service eventService) *EventHandler {
	return &EventHandler{service: service}
}

// List godoc
// @Summary List events with their derived status
// @Tags Events
// @Produce json
// @Param active query bool false "Only events flagged active"
// @Success 200 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	activeOnly := false
	if raw := c.Query("active"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean"))
			return
		}
		activeOnly = parsed
	}

	var (
		events []models.EventView
		err    error
	)
	if activeOnly {
		events, err = h.service.ActiveEvents(c.Request.Context())
	} else {
		events, err = h.service.List(c.Request.Context())
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, events)
}

// Get godoc
// @Summary Get one event
// @Tags Events
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{eventId} [get]
func (h *EventHandler) Get(c *gin.Context) {
	event, err := h.service.Get(c.Request.Context(), idParam(c, "eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, event)
}

// Duplicate godoc
// @Summary Copy an event and its schedule to a new date
// @Tags Events
// @Accept json
// @Produce json
// @Param eventId path string true "Event ID"
// @Param payload body dto.DuplicateEventRequest true "New date"
// @Success 201 {object} response.Envelope
// @Router /events/{eventId}/duplicate [post]
func (h *EventHandler) Duplicate(c *gin.Context) {
	var req dto.DuplicateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid duplicate payload"))
		return
	}
	id := idParam(c, "eventId")
	if err := h.service.Duplicate(c.Request.Context(), id, req); err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, gin.H{"source_id": id, "new_date": req.NewDate})
}

// Share godoc
// @Summary Build the WhatsApp invitation for an event
// @Tags Events
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Router /events/{eventId}/share [get]
func (h *EventHandler) Share(c *gin.Context) {
	link, err := h.service.ShareLink(c.Request.Context(), idParam(c, "eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link)
}

// MyTasks godoc
// @Summary The signed-in driver's passengers for the current active event
// @Tags Drivers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /drivers/me/tasks [get]
func (h *EventHandler) MyTasks(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	tasks, err := h.service.DriverTasks(c.Request.Context(), memberFromClaims(claims))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tasks)
}
