package dto

import "github.com/pastoral-familiar/pastoral-api/internal/models"

// AssignRequest places an elder with a driver, replacing any previous assignment.
type AssignRequest struct {
	DriverID models.ID `json:"driver_id" validate:"required"`
	ElderID  models.ID `json:"elder_id" validate:"required"`
}

// UpdateEntryRequest sets exactly one field of an existing entry.
type UpdateEntryRequest struct {
	Status   *models.EntryStatus `json:"status,omitempty"`
	TripType *models.TripType    `json:"trip_type,omitempty"`
}

// Passenger pairs an elder with the entry assigning them.
type Passenger struct {
	Elder models.Elder         `json:"elder"`
	Entry models.ScheduleEntry `json:"entry"`
}

// DriverLane is one driver's column on the allocation board.
type DriverLane struct {
	Driver     models.Member `json:"driver"`
	Passengers []Passenger   `json:"passengers"`
}

// BoardView is the full allocation state of one event.
type BoardView struct {
	Event           models.EventView `json:"event"`
	Drivers         []DriverLane     `json:"drivers"`
	Unassigned      []models.Elder   `json:"unassigned"`
	Entries         int              `json:"entries"`
	OrphanedEntries int              `json:"orphaned_entries"`
	PersistSeq      int64            `json:"persist_seq"`
}

// AutoMatchResult reports what one auto-match pass created.
type AutoMatchResult struct {
	Created    []models.ScheduleEntry `json:"created"`
	Remaining  int                    `json:"remaining_unassigned"`
	PersistSeq int64                  `json:"persist_seq"`
}

// MutationResult acknowledges an optimistic mutation whose persistence is pending.
type MutationResult struct {
	Entry      *models.ScheduleEntry `json:"entry,omitempty"`
	Changed    bool                  `json:"changed"`
	PersistSeq int64                 `json:"persist_seq,omitempty"`
}
