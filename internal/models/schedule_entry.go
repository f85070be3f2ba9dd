package models

// EntryStatus is the manual lifecycle of a schedule entry.
type EntryStatus string

const (
	EntryStatusPlanned   EntryStatus = "Planejada"
	EntryStatusConfirmed EntryStatus = "Confirmada"
	EntryStatusCompleted EntryStatus = "Concluida"
	EntryStatusCancelled EntryStatus = "Cancelada"
)

var entryStatusCycle = map[EntryStatus]EntryStatus{
	EntryStatusPlanned:   EntryStatusConfirmed,
	EntryStatusConfirmed: EntryStatusCompleted,
	EntryStatusCompleted: EntryStatusCancelled,
	EntryStatusCancelled: EntryStatusPlanned,
}

// Valid reports whether s is a known status.
func (s EntryStatus) Valid() bool {
	_, ok := entryStatusCycle[s]
	return ok
}

// Next returns the following status in the cycle. Unknown values restart at Planned.
func (s EntryStatus) Next() EntryStatus {
	if next, ok := entryStatusCycle[s]; ok {
		return next
	}
	return EntryStatusPlanned
}

// TripType tells which legs of the trip an elder needs.
type TripType string

const (
	TripOutbound TripType = "Ida"
	TripReturn   TripType = "Volta"
	TripBoth     TripType = "Ambos"
)

var tripTypeCycle = map[TripType]TripType{
	TripOutbound: TripReturn,
	TripReturn:   TripBoth,
	TripBoth:     TripOutbound,
}

// Valid reports whether t is a known trip type.
func (t TripType) Valid() bool {
	_, ok := tripTypeCycle[t]
	return ok
}

// Next returns the following trip type. Unknown values become Both.
func (t TripType) Next() TripType {
	if next, ok := tripTypeCycle[t]; ok {
		return next
	}
	return TripBoth
}

// ScheduleEntry (escala) assigns one elder to one driver for one event.
type ScheduleEntry struct {
	EventID  ID          `json:"evento_id"`
	DriverID ID          `json:"motorista_id"`
	ElderID  ID          `json:"assistido_id"`
	Status   EntryStatus `json:"status"`
	TripType TripType    `json:"tipo"`
}

// NewScheduleEntry builds an entry with the default status and trip type.
func NewScheduleEntry(eventID, driverID, elderID ID) ScheduleEntry {
	return ScheduleEntry{
		EventID:  eventID,
		DriverID: driverID,
		ElderID:  elderID,
		Status:   EntryStatusPlanned,
		TripType: TripBoth,
	}
}

// ScheduleBatch is the full-collection replace payload for one event.
type ScheduleBatch struct {
	EventID ID              `json:"evento_id"`
	Entries []ScheduleEntry `json:"escalas"`
}
