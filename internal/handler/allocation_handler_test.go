package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pastoral-familiar/pastoral-api/internal/dto"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
	"github.com/pastoral-familiar/pastoral-api/internal/service"
	appErrors "github.com/pastoral-familiar/pastoral-api/pkg/errors"
)

type allocationServiceMock struct {
	board       *dto.BoardView
	openErr     error
	mutation    *dto.MutationResult
	mutationErr error
	autoMatch   *dto.AutoMatchResult
	lastEvent   models.ID
	lastElder   models.ID
	lastAssign  dto.AssignRequest
	lastUpdate  service.EntryUpdate
}

func (m *allocationServiceMock) Open(ctx context.Context, eventID models.ID) (*dto.BoardView, error) {
	m.lastEvent = eventID
	return m.board, m.openErr
}

func (m *allocationServiceMock) Assign(ctx context.Context, eventID models.ID, req dto.AssignRequest) (*dto.MutationResult, error) {
	m.lastEvent, m.lastAssign = eventID, req
	return m.mutation, m.mutationErr
}

func (m *allocationServiceMock) Unassign(ctx context.Context, eventID, elderID models.ID) (*dto.MutationResult, error) {
	m.lastEvent, m.lastElder = eventID, elderID
	return m.mutation, m.mutationErr
}

func (m *allocationServiceMock) Update(ctx context.Context, eventID, elderID models.ID, update service.EntryUpdate) (*dto.MutationResult, error) {
	m.lastEvent, m.lastElder, m.lastUpdate = eventID, elderID, update
	return m.mutation, m.mutationErr
}

func (m *allocationServiceMock) CycleStatus(ctx context.Context, eventID, elderID models.ID) (*dto.MutationResult, error) {
	m.lastEvent, m.lastElder = eventID, elderID
	return m.mutation, m.mutationErr
}

func (m *allocationServiceMock) CycleTripType(ctx context.Context, eventID, elderID models.ID) (*dto.MutationResult, error) {
	m.lastEvent, m.lastElder = eventID, elderID
	return m.mutation, m.mutationErr
}

func (m *allocationServiceMock) AutoMatch(ctx context.Context, eventID models.ID) (*dto.AutoMatchResult, error) {
	m.lastEvent = eventID
	return m.autoMatch, nil
}

type persistLogMock struct {
	rows      []models.PersistAudit
	lastLimit int
}

func (m *persistLogMock) ListByEvent(ctx context.Context, eventID string, limit int) ([]models.PersistAudit, error) {
	m.lastLimit = limit
	return m.rows, nil
}

func newTestContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	var req *http.Request
	if body == "" {
		req, _ = http.NewRequest(method, target, nil)
	} else {
		req, _ = http.NewRequest(method, target, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	c.Request = req
	return c, w
}

func TestAllocationHandlerBoard(t *testing.T) {
	mock := &allocationServiceMock{board: &dto.BoardView{Entries: 3}}
	h := NewAllocationHandler(mock, nil)

	c, w := newTestContext(http.MethodGet, "/allocation/events/7", "")
	c.Params = gin.Params{{Key: "eventId", Value: "7"}}
	h.Board(c)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ID("7"), mock.lastEvent)
	assert.Contains(t, w.Body.String(), `"entries":3`)

	mock.openErr = appErrors.Clone(appErrors.ErrNotFound, "event not found")
	c, w = newTestContext(http.MethodGet, "/allocation/events/8", "")
	h.Board(c)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAllocationHandlerAssignStatusCodes(t *testing.T) {
	mock := &allocationServiceMock{mutation: &dto.MutationResult{Changed: true, PersistSeq: 4}}
	h := NewAllocationHandler(mock, nil)

	c, w := newTestContext(http.MethodPost, "/allocation/events/1/assignments", `{"driver_id":10,"elder_id":"20"}`)
	c.Params = gin.Params{{Key: "eventId", Value: "1"}}
	h.Assign(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"persist_pending":true`)
	assert.Equal(t, models.ID("10"), mock.lastAssign.DriverID)
	assert.Equal(t, models.ID("20"), mock.lastAssign.ElderID)

	c, w = newTestContext(http.MethodPost, "/allocation/events/1/assignments", `{"driver_id":`)
	h.Assign(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	mock.mutation = &dto.MutationResult{Changed: false}
	c, w = newTestContext(http.MethodDelete, "/allocation/events/1/assignments/20", "")
	c.Params = gin.Params{{Key: "eventId", Value: "1"}, {Key: "elderId", Value: "20"}}
	h.Unassign(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "persist_pending")
	assert.Equal(t, models.ID("20"), mock.lastElder)
}

func TestAllocationHandlerUpdateSelectsVariant(t *testing.T) {
	mock := &allocationServiceMock{mutation: &dto.MutationResult{Changed: true}}
	h := NewAllocationHandler(mock, nil)

	c, w := newTestContext(http.MethodPatch, "/", `{"status":"Confirmada"}`)
	h.Update(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, service.SetStatus{Status: models.EntryStatusConfirmed}, mock.lastUpdate)

	c, w = newTestContext(http.MethodPatch, "/", `{"trip_type":"Volta"}`)
	h.Update(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, service.SetTripType{TripType: models.TripReturn}, mock.lastUpdate)

	for _, body := range []string{`{}`, `{"status":"Confirmada","trip_type":"Ida"}`} {
		mock.lastUpdate = nil
		c, w = newTestContext(http.MethodPatch, "/", body)
		h.Update(c)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Nil(t, mock.lastUpdate)
	}
}

func TestAllocationHandlerAutoMatch(t *testing.T) {
	mock := &allocationServiceMock{autoMatch: &dto.AutoMatchResult{Created: []models.ScheduleEntry{}}}
	h := NewAllocationHandler(mock, nil)

	c, w := newTestContext(http.MethodPost, "/", "")
	h.AutoMatch(c)
	assert.Equal(t, http.StatusOK, w.Code)

	mock.autoMatch = &dto.AutoMatchResult{Created: []models.ScheduleEntry{models.NewScheduleEntry("1", "D", "E")}, PersistSeq: 1}
	c, w = newTestContext(http.MethodPost, "/", "")
	h.AutoMatch(c)
	assert.Equal(t, http.StatusAccepted, w.Code)
}

func TestAllocationHandlerPersistLog(t *testing.T) {
	h := NewAllocationHandler(&allocationServiceMock{}, nil)
	c, w := newTestContext(http.MethodGet, "/", "")
	h.PersistLog(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"audit_enabled":false`)

	audit := &persistLogMock{rows: []models.PersistAudit{{ID: "a", EventID: "1", PersistSeq: 2, Outcome: models.PersistOutcomeFailed}}}
	h = NewAllocationHandler(&allocationServiceMock{}, audit)

	c, w = newTestContext(http.MethodGet, "/?limit=5", "")
	h.PersistLog(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 5, audit.lastLimit)
	var env struct {
		Data []models.PersistAudit `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.Len(t, env.Data, 1)
	assert.Equal(t, int64(2), env.Data[0].PersistSeq)

	c, w = newTestContext(http.MethodGet, "/?limit=-1", "")
	h.PersistLog(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
