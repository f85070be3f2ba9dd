package dto

import "github.com/pastoral-familiar/pastoral-api/internal/models"

// DuplicateEventRequest copies an event and its schedule to a new date.
type DuplicateEventRequest struct {
	NewDate string `json:"new_date" validate:"required"`
}

// ShareLink is a prepared WhatsApp link with the message it carries.
type ShareLink struct {
	Text string `json:"text"`
	URL  string `json:"url"`
}

// TaskPassenger is one stop of a driver's mission with its navigation and contact links.
type TaskPassenger struct {
	Passenger
	MapsURL     string `json:"maps_url"`
	WhatsAppURL string `json:"whatsapp_url,omitempty"`
}

// DriverTasks is a driver's transport mission for the current active event.
type DriverTasks struct {
	Event      *models.EventView `json:"event"`
	Passengers []TaskPassenger   `json:"passengers"`
}
