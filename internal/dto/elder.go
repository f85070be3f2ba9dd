package dto

import "github.com/pastoral-familiar/pastoral-api/internal/models"

// WhatsApp recipients.
const (
	RecipientElder    = "elder"
	RecipientGuardian = "guardian"
)

// WhatsAppRequest prepares message links for a selection of elders. An empty message uses
// the default template for the recipient.
type WhatsAppRequest struct {
	ElderIDs  []models.ID `json:"elder_ids" validate:"required,min=1,max=200"`
	Recipient string      `json:"recipient" validate:"required,oneof=elder guardian"`
	Message   string      `json:"message" validate:"max=2000"`
}

// WhatsAppLink is the prepared link for one elder, or the reason none could be built.
type WhatsAppLink struct {
	ElderID models.ID `json:"elder_id"`
	Name    string    `json:"name"`
	Phone   string    `json:"phone,omitempty"`
	URL     string    `json:"url,omitempty"`
	Skipped string    `json:"skipped,omitempty"`
}
