package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pastoral-familiar/pastoral-api/internal/dto"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
	appErrors "github.com/pastoral-familiar/pastoral-api/pkg/errors"
	"github.com/pastoral-familiar/pastoral-api/pkg/response"
)

type challengeService interface {
	Begin(ctx context.Context, req dto.BeginChallengeRequest) (*dto.ChallengeResponse, error)
	Answer(ctx context.Context, req dto.AnswerChallengeRequest) (*models.Session, error)
}

// ChallengeHandler runs the identity challenge sign-in.
type ChallengeHandler struct {
	service challengeService
}

// NewChallengeHandler builds a new handler.
func NewChallengeHandler(service challengeService) *ChallengeHandler {
	return &ChallengeHandler{service: service}
}

// Begin godoc
// @Summary Start an identity challenge for a login
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.BeginChallengeRequest true "Login"
// @Success 201 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /auth/challenge [post]
func (h *ChallengeHandler) Begin(c *gin.Context) {
	var req dto.BeginChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid login payload"))
		return
	}
	challenge, err := h.service.Begin(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, challenge)
}

// Answer godoc
// @Summary Answer a pending challenge
// @Description The challenge is consumed by every attempt; a wrong answer requires a new challenge.
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.AnswerChallengeRequest true "Selected option"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /auth/challenge/answer [post]
func (h *ChallengeHandler) Answer(c *gin.Context) {
	var req dto.AnswerChallengeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid answer payload"))
		return
	}
	session, err := h.service.Answer(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	if session.Degraded {
		response.JSON(c, http.StatusOK, session, map[string]interface{}{
			"warning": appErrors.ErrPartialDegradation.Code,
			"message": "member profile could not be completed; some features may be unavailable",
		})
		return
	}
	response.JSON(c, http.StatusOK, session)
}

// Me godoc
// @Summary Current session claims
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /auth/me [get]
func (h *ChallengeHandler) Me(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	response.JSON(c, http.StatusOK, claims)
}
