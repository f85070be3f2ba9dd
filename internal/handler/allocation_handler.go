package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pastoral-familiar/pastoral-api/internal/dto"
	"github.com/pastoral-familiar/pastoral-api/internal/middleware"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
	"github.com/pastoral-familiar/pastoral-api/internal/service"
	appErrors "github.com/pastoral-familiar/pastoral-api/pkg/errors"
	"github.com/pastoral-familiar/pastoral-api/pkg/response"
)

const defaultPersistLogLimit = 50

type allocationService interface {
	Open(ctx context.Context, eventID models.ID) (*dto.BoardView, error)
	Assign(ctx context.Context, eventID models.ID, req dto.AssignRequest) (*dto.MutationResult, error)
	Unassign(ctx context.Context, eventID, elderID models.ID) (*dto.MutationResult, error)
	Update(ctx context.Context, eventID, elderID models.ID, update service.EntryUpdate) (*dto.MutationResult, error)
	CycleStatus(ctx context.Context, eventID, elderID models.ID) (*dto.MutationResult, error)
	CycleTripType(ctx context.Context, eventID, elderID models.ID) (*dto.MutationResult, error)
	AutoMatch(ctx context.Context, eventID models.ID) (*dto.AutoMatchResult, error)
}

type persistLogReader interface {
	ListByEvent(ctx context.Context, eventID string, limit int) ([]models.PersistAudit, error)
}

// AllocationHandler exposes the transport allocation board.
type AllocationHandler struct {
	service allocationService
	audit   persistLogReader
}

// NewAllocationHandler builds a new handler. audit may be nil when the audit trail is disabled.
func NewAllocationHandler(service allocationService, audit persistLogReader) *AllocationHandler {
	return &AllocationHandler{service: service, audit: audit}
}

// Board godoc
// @Summary Load the allocation board of an event
// @Description Always reloads elders, drivers and schedule entries from the backend.
// @Tags Allocation
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /allocation/events/{eventId} [get]
func (h *AllocationHandler) Board(c *gin.Context) {
	view, err := h.service.Open(c.Request.Context(), idParam(c, "eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view)
}

// Assign godoc
// @Summary Assign an elder to a driver
// @Tags Allocation
// @Accept json
// @Produce json
// @Param eventId path string true "Event ID"
// @Param payload body dto.AssignRequest true "Assignment"
// @Success 202 {object} response.Envelope
// @Router /allocation/events/{eventId}/assignments [post]
func (h *AllocationHandler) Assign(c *gin.Context) {
	var req dto.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	result, err := h.service.Assign(c.Request.Context(), idParam(c, "eventId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondMutation(c, result)
}

// Unassign godoc
// @Summary Remove an elder's assignment
// @Tags Allocation
// @Produce json
// @Param eventId path string true "Event ID"
// @Param elderId path string true "Elder ID"
// @Success 200 {object} response.Envelope
// @Success 202 {object} response.Envelope
// @Router /allocation/events/{eventId}/assignments/{elderId} [delete]
func (h *AllocationHandler) Unassign(c *gin.Context) {
	result, err := h.service.Unassign(c.Request.Context(), idParam(c, "eventId"), idParam(c, "elderId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondMutation(c, result)
}

// Update godoc
// @Summary Set the status or the trip type of an entry
// @Description Exactly one of status or trip_type must be present.
// @Tags Allocation
// @Accept json
// @Produce json
// @Param eventId path string true "Event ID"
// @Param elderId path string true "Elder ID"
// @Param payload body dto.UpdateEntryRequest true "Field update"
// @Success 202 {object} response.Envelope
// @Router /allocation/events/{eventId}/assignments/{elderId} [patch]
func (h *AllocationHandler) Update(c *gin.Context) {
	var req dto.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}
	update, err := entryUpdateFrom(req)
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.service.Update(c.Request.Context(), idParam(c, "eventId"), idParam(c, "elderId"), update)
	if err != nil {
		response.Error(c, err)
		return
	}
	respondMutation(c, result)
}

// CycleStatus godoc
// @Summary Advance an entry's status
// @Tags Allocation
// @Produce json
// @Param eventId path string true "Event ID"
// @Param elderId path string true "Elder ID"
// @Success 202 {object} response.Envelope
// @Router /allocation/events/{eventId}/assignments/{elderId}/cycle-status [post]
func (h *AllocationHandler) CycleStatus(c *gin.Context) {
	result, err := h.service.CycleStatus(c.Request.Context(), idParam(c, "eventId"), idParam(c, "elderId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondMutation(c, result)
}

// CycleTripType godoc
// @Summary Advance an entry's trip type
// @Tags Allocation
// @Produce json
// @Param eventId path string true "Event ID"
// @Param elderId path string true "Elder ID"
// @Success 202 {object} response.Envelope
// @Router /allocation/events/{eventId}/assignments/{elderId}/cycle-trip [post]
func (h *AllocationHandler) CycleTripType(c *gin.Context) {
	result, err := h.service.CycleTripType(c.Request.Context(), idParam(c, "eventId"), idParam(c, "elderId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	respondMutation(c, result)
}

// AutoMatch godoc
// @Summary Fill drivers with unassigned elders by neighborhood
// @Tags Allocation
// @Produce json
// @Param eventId path string true "Event ID"
// @Success 202 {object} response.Envelope
// @Router /allocation/events/{eventId}/auto-match [post]
func (h *AllocationHandler) AutoMatch(c *gin.Context) {
	result, err := h.service.AutoMatch(c.Request.Context(), idParam(c, "eventId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if len(result.Created) == 0 {
		response.JSON(c, http.StatusOK, result)
		return
	}
	middleware.SetPersistPending(c, result.PersistSeq)
	response.Accepted(c, result, middleware.ResponseMeta(c))
}

// PersistLog godoc
// @Summary List recent batch write attempts for an event
// @Tags Allocation
// @Produce json
// @Param eventId path string true "Event ID"
// @Param limit query int false "Maximum rows (default 50)"
// @Success 200 {object} response.Envelope
// @Router /allocation/events/{eventId}/persist-log [get]
func (h *AllocationHandler) PersistLog(c *gin.Context) {
	if h.audit == nil {
		response.JSON(c, http.StatusOK, []models.PersistAudit{}, map[string]interface{}{"audit_enabled": false})
		return
	}
	limit := defaultPersistLogLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
			return
		}
		limit = parsed
	}
	rows, err := h.audit.ListByEvent(c.Request.Context(), c.Param("eventId"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows)
}

func entryUpdateFrom(req dto.UpdateEntryRequest) (service.EntryUpdate, error) {
	switch {
	case req.Status != nil && req.TripType != nil:
		return nil, appErrors.Clone(appErrors.ErrValidation, "update one field at a time")
	case req.Status != nil:
		return service.SetStatus{Status: *req.Status}, nil
	case req.TripType != nil:
		return service.SetTripType{TripType: *req.TripType}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "status or trip_type is required")
	}
}

func respondMutation(c *gin.Context, result *dto.MutationResult) {
	if !result.Changed {
		response.JSON(c, http.StatusOK, result)
		return
	}
	middleware.SetPersistPending(c, result.PersistSeq)
	response.Accepted(c, result, middleware.ResponseMeta(c))
}
