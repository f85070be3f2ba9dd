package dto

import (
	"time"

	"github.com/pastoral-familiar/pastoral-api/internal/models"
)

// BeginChallengeRequest starts the identity challenge for a login handle.
type BeginChallengeRequest struct {
	Login string `json:"login" validate:"required,max=120"`
}

// ChallengeResponse carries the shuffled options. The correct one is never marked.
type ChallengeResponse struct {
	ChallengeID   string               `json:"challenge_id"`
	ChallengeType models.ChallengeType `json:"challenge_type"`
	DisplayName   string               `json:"display_name"`
	Options       []string             `json:"options"`
	ExpiresAt     time.Time            `json:"expires_at"`
}

// AnswerChallengeRequest grades one selected option.
type AnswerChallengeRequest struct {
	ChallengeID string `json:"challenge_id" validate:"required"`
	Option      string `json:"option" validate:"required,len=10"`
}
