package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pastoral-familiar/pastoral-api/internal/middleware"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
	"github.com/pastoral-familiar/pastoral-api/pkg/response"
)

type postalService interface {
	Lookup(ctx context.Context, raw string) (*models.PostalAddress, bool, error)
}

// PostalHandler resolves postal codes for the registration form.
type PostalHandler struct {
	service postalService
}

// NewPostalHandler builds a new handler.
func NewPostalHandler(service postalService) *PostalHandler {
	return &PostalHandler{service: service}
}

// Lookup godoc
// @Summary Resolve a postal code
// @Tags Postal
// @Produce json
// @Param cep path string true "Postal code, 8 digits"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /postal-codes/{cep} [get]
func (h *PostalHandler) Lookup(c *gin.Context) {
	addr, hit, err := h.service.Lookup(c.Request.Context(), c.Param("cep"))
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, addr, middleware.ResponseMeta(c))
}
