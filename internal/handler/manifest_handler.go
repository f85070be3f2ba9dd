package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/pastoral-familiar/pastoral-api/internal/dto"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
	"github.com/pastoral-familiar/pastoral-api/pkg/response"
)

type manifestService interface {
	Manifest(ctx context.Context, eventID, driverID models.ID, format string) (*dto.ManifestDocument, error)
	ManifestAll(ctx context.Context, eventID models.ID, format string) (*dto.ManifestDocument, error)
	Share(ctx context.Context, eventID, driverID models.ID) (*dto.ManifestShare, error)
	RenderShared(ctx context.Context, token, format string) (*dto.ManifestDocument, error)
}

// ManifestHandler serves printable route manifests.
type ManifestHandler struct {
	service manifestService
}

// NewManifestHandler builds a new handler.
func NewManifestHandler(service manifestService) *ManifestHandler {
	return &ManifestHandler{service: service}
}

// All godoc
// @Summary Render every driver's manifest for an event
// @Tags Manifests
// @Produce html
// @Produce application/pdf
// @Produce text/csv
// @Param eventId path string true "Event ID"
// @Param format query string false "html (default), pdf or csv"
// @Success 200 {file} file
// @Failure 422 {object} response.Envelope
// @Router /allocation/events/{eventId}/manifests [get]
func (h *ManifestHandler) All(c *gin.Context) {
	doc, err := h.service.ManifestAll(c.Request.Context(), idParam(c, "eventId"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Document(c, doc.ContentType, doc.Filename, doc.Body)
}

// Driver godoc
// @Summary Render one driver's manifest
// @Tags Manifests
// @Produce html
// @Produce application/pdf
// @Produce text/csv
// @Param eventId path string true "Event ID"
// @Param driverId path string true "Driver ID"
// @Param format query string false "html (default), pdf or csv"
// @Success 200 {file} file
// @Failure 422 {object} response.Envelope
// @Router /allocation/events/{eventId}/manifests/{driverId} [get]
func (h *ManifestHandler) Driver(c *gin.Context) {
	doc, err := h.service.Manifest(c.Request.Context(), idParam(c, "eventId"), idParam(c, "driverId"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Document(c, doc.ContentType, doc.Filename, doc.Body)
}

// Share godoc
// @Summary Create an expiring public link to a driver's manifest
// @Tags Manifests
// @Produce json
// @Param eventId path string true "Event ID"
// @Param driverId path string true "Driver ID"
// @Success 201 {object} response.Envelope
// @Router /allocation/events/{eventId}/manifests/{driverId}/share [post]
func (h *ManifestHandler) Share(c *gin.Context) {
	share, err := h.service.Share(c.Request.Context(), idParam(c, "eventId"), idParam(c, "driverId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, share)
}

// Shared godoc
// @Summary Render a manifest from a shared link
// @Tags Manifests
// @Produce html
// @Param token path string true "Share token"
// @Param format query string false "html (default), pdf or csv"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /manifests/shared/{token} [get]
func (h *ManifestHandler) Shared(c *gin.Context) {
	doc, err := h.service.RenderShared(c.Request.Context(), c.Param("token"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Document(c, doc.ContentType, doc.Filename, doc.Body)
}
