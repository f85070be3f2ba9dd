package models

// EventStatus is the display status derived from the active flag and the start time.
type EventStatus string

const (
	EventStatusCompleted   EventStatus = "CONCLUIDO"
	EventStatusActive      EventStatus = "ATIVO"
	EventStatusScheduled   EventStatus = "AGENDADO"
	EventStatusInvalidDate EventStatus = "DATA_INVALIDA"
)

// Event (evento) is a scheduled occurrence elders are transported to.
type Event struct {
	ID              ID     `json:"id"`
	Title           string `json:"titulo"`
	StartsAt        string `json:"data_inicio"`
	LocationName    string `json:"local_nome"`
	LocationAddress string `json:"local_endereco,omitempty"`
	Active          Flag   `json:"ativo"`
}

// EventView decorates an event with its derived status.
type EventView struct {
	Event
	Status EventStatus `json:"status"`
}
