package repository

import (
	"context"
	"fmt"

	"github.com/pastoral-familiar/pastoral-api/internal/models"
)

// ScheduleRepository reads and replaces schedule entries (escalas) for an event.
type ScheduleRepository struct {
	client backendClient
}

// NewScheduleRepository constructs a schedule repository.
func NewScheduleRepository(client backendClient) *ScheduleRepository {
	return &ScheduleRepository{client: client}
}

// ListByEvent returns the stored entries of one event.
func (r *ScheduleRepository) ListByEvent(ctx context.Context, eventID models.ID) ([]models.ScheduleEntry, error) {
	var entries []models.ScheduleEntry
	if err := r.client.GetJSON(ctx, "/api/escalas/"+pathID(eventID.String()), &entries); err != nil {
		return nil, fmt.Errorf("list schedule for event %s: %w", eventID, err)
	}
	return entries, nil
}

// ReplaceBatch overwrites the whole schedule of the batch's event. It is sent once, never retried.
func (r *ScheduleRepository) ReplaceBatch(ctx context.Context, batch models.ScheduleBatch) error {
	if batch.Entries == nil {
		batch.Entries = []models.ScheduleEntry{}
	}
	if err := r.client.PostJSON(ctx, "/api/escalas/batch", batch, nil); err != nil {
		return fmt.Errorf("replace schedule for event %s: %w", batch.EventID, err)
	}
	return nil
}
