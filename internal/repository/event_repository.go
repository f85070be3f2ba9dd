package repository

import (
	"context"
	"fmt"

	"github.com/pastoral-familiar/pastoral-api/internal/models"
)

// EventRepository reads and duplicates events (eventos) on the parish backend.
type EventRepository struct {
	client backendClient
}

// NewEventRepository constructs an event repository.
func NewEventRepository(client backendClient) *EventRepository {
	return &EventRepository{client: client}
}

// List returns all events in backend order.
func (r *EventRepository) List(ctx context.Context) ([]models.Event, error) {
	var events []models.Event
	if err := r.client.GetJSON(ctx, "/api/eventos", &events); err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// Duplicate asks the backend to copy an event and its schedule to a new date.
func (r *EventRepository) Duplicate(ctx context.Context, id models.ID, newDate string) error {
	body := map[string]string{"new_date": newDate}
	if err := r.client.PostJSON(ctx, "/api/eventos/"+pathID(id.String())+"/duplicate", body, nil); err != nil {
		return fmt.Errorf("duplicate event %s: %w", id, err)
	}
	return nil
}
