package service

import (
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/pastoral-familiar/pastoral-api/internal/dto"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
)

// Default WhatsApp templates. {nome} and {responsavel} are replaced per elder.
const (
	DefaultElderMessage    = "Olá {nome}, a Paz de Cristo! Lembramos da nossa Missa da Saúde no dia..."
	DefaultGuardianMessage = "Olá {responsavel}, sou da Pastoral Familiar. Gostaria de confirmar a presença do(a) {nome} na Missa da Saúde."

	guardianFallback = "Responsável"
	whatsAppBase     = "https://wa.me/"
	mapsBase         = "https://www.google.com/maps/dir/?api=1&destination="
)

// NormalizePhone keeps digits only and prefixes the Brazil country code on 10 or 11 digit numbers.
func NormalizePhone(phone string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, phone)
	if len(digits) >= 10 && len(digits) <= 11 {
		digits = "55" + digits
	}
	return digits
}

// WhatsAppURL builds a click-to-chat link. An empty phone yields a contact-picker link.
func WhatsAppURL(phone, text string) string {
	link := whatsAppBase + NormalizePhone(phone)
	if text != "" {
		link += "?text=" + encodeURIComponent(text)
	}
	return link
}

// MapsURL builds a driving-directions link for an elder's address.
func MapsURL(e models.Elder) string {
	return mapsBase + encodeURIComponent(e.Address()+", "+e.City)
}

// ElderMessage fills a template addressed to the elder.
func ElderMessage(template string, e models.Elder) string {
	if template == "" {
		template = DefaultElderMessage
	}
	return strings.ReplaceAll(template, "{nome}", e.FirstName())
}

// GuardianMessage fills a template addressed to the elder's guardian.
func GuardianMessage(template string, e models.Elder) string {
	if template == "" {
		template = DefaultGuardianMessage
	}
	guardian := firstWordOf(e.GuardianName)
	if guardian == "" {
		guardian = guardianFallback
	}
	text := strings.ReplaceAll(template, "{nome}", e.FullName)
	return strings.ReplaceAll(text, "{responsavel}", guardian)
}

// WhatsAppLinks prepares one link per elder, in the order the ids were given. Unknown elders
// and elders without the recipient's phone are reported as skipped.
func WhatsAppLinks(elders []models.Elder, req dto.WhatsAppRequest) []dto.WhatsAppLink {
	byID := make(map[models.ID]models.Elder, len(elders))
	for _, e := range elders {
		byID[e.ID] = e
	}

	links := make([]dto.WhatsAppLink, 0, len(req.ElderIDs))
	for _, id := range req.ElderIDs {
		e, ok := byID[id]
		if !ok {
			links = append(links, dto.WhatsAppLink{ElderID: id, Skipped: "elder not found"})
			continue
		}

		phone, text := e.Phone, ElderMessage(req.Message, e)
		if req.Recipient == dto.RecipientGuardian {
			phone, text = e.GuardianPhone, GuardianMessage(req.Message, e)
		}
		link := dto.WhatsAppLink{ElderID: id, Name: e.FullName}
		if NormalizePhone(phone) == "" {
			link.Skipped = "phone not registered"
		} else {
			link.Phone = phone
			link.URL = WhatsAppURL(phone, text)
		}
		links = append(links, link)
	}
	return links
}

// EventInvitation renders the WhatsApp invitation for an event.
func EventInvitation(e models.Event, loc *time.Location) string {
	var b strings.Builder
	b.WriteString("*PASTORAL FAMILIAR - CONVITE* ✝️\n\n")
	b.WriteString("📅 *Evento:* " + e.Title + "\n")
	b.WriteString("🗓️ *Data:* " + formatLocalDateTime(e.StartsAt, loc) + "\n")
	b.WriteString("📍 *Local:* " + e.LocationName + "\n")
	if e.LocationAddress != "" {
		b.WriteString("🗺️ *Endereço:* " + e.LocationAddress + "\n")
	}
	b.WriteString("\nContamos com sua presença!")
	return b.String()
}

// encodeURIComponent escapes s the way browsers encode a URI component: spaces become %20
// and the marks !'()* stay literal.
func encodeURIComponent(s string) string {
	escaped := url.QueryEscape(s)
	return strings.NewReplacer(
		"+", "%20",
		"%21", "!",
		"%27", "'",
		"%28", "(",
		"%29", ")",
		"%2A", "*",
	).Replace(escaped)
}

func firstWordOf(s string) string {
	fields := strings.FieldsFunc(s, unicode.IsSpace)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
