package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pastoral-familiar/pastoral-api/internal/dto"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
	"github.com/pastoral-familiar/pastoral-api/internal/service"
)

type elderServiceMock struct {
	lastFilter models.ElderFilter
	lastReq    dto.WhatsAppRequest
}

func (m *elderServiceMock) List(ctx context.Context, filter models.ElderFilter) ([]models.Elder, error) {
	m.lastFilter = filter
	return []models.Elder{{ID: "1"}}, nil
}

func (m *elderServiceMock) Neighborhoods(ctx context.Context) ([]service.NeighborhoodCount, error) {
	return []service.NeighborhoodCount{{Neighborhood: "Centro", Elders: 2}}, nil
}

func (m *elderServiceMock) WhatsApp(ctx context.Context, req dto.WhatsAppRequest) ([]dto.WhatsAppLink, error) {
	m.lastReq = req
	return []dto.WhatsAppLink{}, nil
}

func TestElderHandlerListParsesFilter(t *testing.T) {
	mock := &elderServiceMock{}
	h := NewElderHandler(mock)

	c, w := newTestContext(http.MethodGet, "/elders?search=jos%C3%A9&neighborhood=Centro&active=false", "")
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "josé", mock.lastFilter.Search)
	assert.Equal(t, "Centro", mock.lastFilter.Neighborhood)
	require.NotNil(t, mock.lastFilter.Active)
	assert.False(t, *mock.lastFilter.Active)
	assert.Contains(t, w.Body.String(), `"total":1`)

	c, w = newTestContext(http.MethodGet, "/elders?active=maybe", "")
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestElderHandlerWhatsApp(t *testing.T) {
	mock := &elderServiceMock{}
	h := NewElderHandler(mock)

	c, w := newTestContext(http.MethodPost, "/elders/whatsapp", `{"elder_ids":[1,"2"],"recipient":"guardian"}`)
	h.WhatsApp(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []models.ID{"1", "2"}, mock.lastReq.ElderIDs)
	assert.Equal(t, dto.RecipientGuardian, mock.lastReq.Recipient)
}
