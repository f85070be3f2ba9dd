package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/pastoral-familiar/pastoral-api/internal/dto"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
	"github.com/pastoral-familiar/pastoral-api/internal/service"
	appErrors "github.com/pastoral-familiar/pastoral-api/pkg/errors"
	"github.com/pastoral-familiar/pastoral-api/pkg/response"
)

type elderService interface {
	List(ctx context.Context, filter models.ElderFilter) ([]models.Elder, error)
	Neighborhoods(ctx context.Context) ([]service.NeighborhoodCount, error)
	WhatsApp(ctx context.Context, req dto.WhatsAppRequest) ([]dto.WhatsAppLink, error)
}

// ElderHandler exposes elder listing and outreach.
type ElderHandler struct {
	service elderService
}

// NewElderHandler builds a new handler.
func NewElderHandler(service elderService) *ElderHandler {
	return &ElderHandler{service: service}
}

// List godoc
// @Summary List elders
// @Tags Elders
// @Produce json
// @Param search query string false "Name or neighborhood, accent-insensitive"
// @Param neighborhood query string false "Exact neighborhood, accent-insensitive"
// @Param active query bool false "Active flag"
// @Success 200 {object} response.Envelope
// @Router /elders [get]
func (h *ElderHandler) List(c *gin.Context) {
	filter := models.ElderFilter{
		Search:       c.Query("search"),
		Neighborhood: c.Query("neighborhood"),
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "active must be a boolean"))
			return
		}
		filter.Active = &active
	}
	elders, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, elders, map[string]interface{}{"total": len(elders)})
}

// Neighborhoods godoc
// @Summary Active elders per neighborhood
// @Tags Elders
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /elders/neighborhoods [get]
func (h *ElderHandler) Neighborhoods(c *gin.Context) {
	counts, err := h.service.Neighborhoods(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts)
}

// WhatsApp godoc
// @Summary Prepare WhatsApp links for elders or their guardians
// @Tags Elders
// @Accept json
// @Produce json
// @Param payload body dto.WhatsAppRequest true "Selection and message"
// @Success 200 {object} response.Envelope
// @Router /elders/whatsapp [post]
func (h *ElderHandler) WhatsApp(c *gin.Context) {
	var req dto.WhatsAppRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid whatsapp payload"))
		return
	}
	links, err := h.service.WhatsApp(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, links)
}
