package repository

import (
	"context"
	"fmt"

	"github.com/pastoral-familiar/pastoral-api/internal/models"
	appErrors "github.com/pastoral-familiar/pastoral-api/pkg/errors"
)

type viaCEPResponse struct {
	CEP          string      `json:"cep"`
	Street       string      `json:"logradouro"`
	Neighborhood string      `json:"bairro"`
	City         string      `json:"localidade"`
	State        string      `json:"uf"`
	Error        models.Flag `json:"erro"`
}

// PostalRepository resolves Brazilian postal codes through a viacep-compatible service.
type PostalRepository struct {
	client backendClient
}

// NewPostalRepository constructs a postal repository.
func NewPostalRepository(client backendClient) *PostalRepository {
	return &PostalRepository{client: client}
}

// Lookup resolves an 8-digit postal code.
func (r *PostalRepository) Lookup(ctx context.Context, cep string) (*models.PostalAddress, error) {
	var resp viaCEPResponse
	if err := r.client.GetJSON(ctx, "/"+pathID(cep)+"/json/", &resp); err != nil {
		return nil, fmt.Errorf("lookup postal code %s: %w", cep, err)
	}
	if resp.Error {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "postal code not found")
	}
	return &models.PostalAddress{
		PostalCode:   cep,
		Street:       resp.Street,
		Neighborhood: resp.Neighborhood,
		City:         resp.City,
		State:        resp.State,
	}, nil
}
