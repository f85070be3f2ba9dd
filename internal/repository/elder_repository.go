package repository

import (
	"context"
	"fmt"

	"github.com/pastoral-familiar/pastoral-api/internal/models"
)

// ElderRepository reads elders (assistidos) from the parish backend.
type ElderRepository struct {
	client backendClient
}

// NewElderRepository constructs an elder repository.
func NewElderRepository(client backendClient) *ElderRepository {
	return &ElderRepository{client: client}
}

// List returns every registered elder.
func (r *ElderRepository) List(ctx context.Context) ([]models.Elder, error) {
	var elders []models.Elder
	if err := r.client.GetJSON(ctx, "/api/assistidos", &elders); err != nil {
		return nil, fmt.Errorf("list elders: %w", err)
	}
	return elders, nil
}
