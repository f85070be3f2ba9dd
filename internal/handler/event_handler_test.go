package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pastoral-familiar/pastoral-api/internal/dto"
	"github.com/pastoral-familiar/pastoral-api/internal/middleware"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
)

type eventServiceMock struct {
	listCalled   bool
	activeCalled bool
	duplicated   dto.DuplicateEventRequest
	taskDriver   models.Member
}

func (m *eventServiceMock) List(ctx context.Context) ([]models.EventView, error) {
	m.listCalled = true
	return []models.EventView{}, nil
}

func (m *eventServiceMock) ActiveEvents(ctx context.Context) ([]models.EventView, error) {
	m.activeCalled = true
	return []models.EventView{}, nil
}

func (m *eventServiceMock) Get(ctx context.Context, id models.ID) (*models.EventView, error) {
	return &models.EventView{}, nil
}

func (m *eventServiceMock) Duplicate(ctx context.Context, id models.ID, req dto.DuplicateEventRequest) error {
	m.duplicated = req
	return nil
}

func (m *eventServiceMock) ShareLink(ctx context.Context, id models.ID) (*dto.ShareLink, error) {
	return &dto.ShareLink{URL: "https://wa.me/?text=x"}, nil
}

func (m *eventServiceMock) DriverTasks(ctx context.Context, driver models.Member) (*dto.DriverTasks, error) {
	m.taskDriver = driver
	return &dto.DriverTasks{Passengers: []dto.TaskPassenger{}}, nil
}

func TestEventHandlerListActiveFilter(t *testing.T) {
	mock := &eventServiceMock{}
	h := NewEventHandler(mock)

	c, w := newTestContext(http.MethodGet, "/events", "")
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mock.listCalled)
	assert.False(t, mock.activeCalled)

	c, w = newTestContext(http.MethodGet, "/events?active=true", "")
	h.List(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mock.activeCalled)

	c, w = newTestContext(http.MethodGet, "/events?active=sim", "")
	h.List(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEventHandlerDuplicate(t *testing.T) {
	mock := &eventServiceMock{}
	h := NewEventHandler(mock)

	c, w := newTestContext(http.MethodPost, "/events/3/duplicate", `{"new_date":"2026-12-24T19:00"}`)
	h.Duplicate(c)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "2026-12-24T19:00", mock.duplicated.NewDate)
}

func TestEventHandlerMyTasksUsesSessionIdentity(t *testing.T) {
	mock := &eventServiceMock{}
	h := NewEventHandler(mock)

	c, w := newTestContext(http.MethodGet, "/drivers/me/tasks", "")
	h.MyTasks(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	c, w = newTestContext(http.MethodGet, "/drivers/me/tasks", "")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{MemberID: "4", FullName: "Carlos", Driver: true})
	h.MyTasks(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ID("4"), mock.taskDriver.ID)
	assert.True(t, mock.taskDriver.IsDriver())
}
