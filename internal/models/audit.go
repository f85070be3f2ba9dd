package models

import "time"

// Persist outcomes recorded in the audit trail.
const (
	PersistOutcomeSucceeded = "SUCCEEDED"
	PersistOutcomeFailed    = "FAILED"
)

// Allocation operations that trigger a batch write.
const (
	PersistOpAssign    = "ASSIGN"
	PersistOpUnassign  = "UNASSIGN"
	PersistOpUpdate    = "UPDATE"
	PersistOpAutoMatch = "AUTO_MATCH"
)

// PersistAudit records one full-collection write attempt for an event board.
type PersistAudit struct {
	ID           string    `db:"id" json:"id"`
	EventID      string    `db:"event_id" json:"event_id"`
	PersistSeq   int64     `db:"persist_seq" json:"persist_seq"`
	Operation    string    `db:"operation" json:"operation"`
	EntryCount   int       `db:"entry_count" json:"entry_count"`
	Outcome      string    `db:"outcome" json:"outcome"`
	ErrorMessage *string   `db:"error_message" json:"error_message,omitempty"`
	RequestID    *string   `db:"request_id" json:"request_id,omitempty"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
