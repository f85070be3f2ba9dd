package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pastoral-familiar/pastoral-api/internal/dto"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
	appErrors "github.com/pastoral-familiar/pastoral-api/pkg/errors"
)

type eventStoreStub struct {
	events     []models.Event
	duplicated map[models.ID]string
}

func (s *eventStoreStub) List(ctx context.Context) ([]models.Event, error) {
	return s.events, nil
}

func (s *eventStoreStub) Duplicate(ctx context.Context, id models.ID, newDate string) error {
	if s.duplicated == nil {
		s.duplicated = map[models.ID]string{}
	}
	s.duplicated[id] = newDate
	return nil
}

type boardReaderStub struct {
	event   models.Event
	entries []models.ScheduleEntry
	elders  []models.Elder
	drivers []models.Member
	err     error
	eventID models.ID
}

func (s *boardReaderStub) Entries(ctx context.Context, eventID models.ID) (models.Event, []models.ScheduleEntry, []models.Elder, []models.Member, error) {
	s.eventID = eventID
	event := s.event
	event.ID = eventID
	return event, s.entries, s.elders, s.drivers, s.err
}

func TestDeriveEventStatus(t *testing.T) {
	loc := time.FixedZone("BRT", -3*3600)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, loc)

	cases := []struct {
		name   string
		active bool
		start  string
		want   models.EventStatus
	}{
		{"past active", true, "2026-03-09T09:00", models.EventStatusCompleted},
		{"past inactive", false, "2026-03-09T09:00:00.000Z", models.EventStatusCompleted},
		{"future active", true, "2026-03-11T09:00", models.EventStatusActive},
		{"future inactive", false, "2026-03-11 09:00:00", models.EventStatusScheduled},
		{"empty", true, "", models.EventStatusInvalidDate},
		{"garbage", true, "amanhã", models.EventStatusInvalidDate},
		{"date only", false, "2026-04-01", models.EventStatusScheduled},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DeriveEventStatus(tc.active, tc.start, now))
		})
	}
}

func newEventService(events []models.Event, boards *boardReaderStub) (*EventService, *eventStoreStub) {
	store := &eventStoreStub{events: events}
	svc := NewEventService(store, boards, nil, nil, time.UTC)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	return svc, store
}

func TestEventServiceActiveEventsKeepsBackendOrder(t *testing.T) {
	svc, _ := newEventService([]models.Event{
		{ID: "1", StartsAt: "2026-01-01T09:00", Active: true},
		{ID: "2", StartsAt: "2026-05-01T09:00"},
		{ID: "3", StartsAt: "2026-06-01T09:00", Active: true},
	}, nil)

	active, err := svc.ActiveEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, models.ID("1"), active[0].ID)
	assert.Equal(t, models.EventStatusCompleted, active[0].Status)
	assert.Equal(t, models.EventStatusActive, active[1].Status)
}

func TestEventServiceDuplicateValidatesDate(t *testing.T) {
	svc, store := newEventService(nil, nil)
	ctx := context.Background()

	err := svc.Duplicate(ctx, "4", dto.DuplicateEventRequest{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	err = svc.Duplicate(ctx, "4", dto.DuplicateEventRequest{NewDate: "next sunday"})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	require.NoError(t, svc.Duplicate(ctx, "4", dto.DuplicateEventRequest{NewDate: "2026-12-01T09:00"}))
	assert.Equal(t, "2026-12-01T09:00", store.duplicated["4"])
}

func TestEventServiceShareLink(t *testing.T) {
	svc, _ := newEventService([]models.Event{
		{ID: "7", Title: "Missa da Saúde", StartsAt: "2026-04-05T09:30", LocationName: "Matriz"},
	}, nil)

	link, err := svc.ShareLink(context.Background(), "7")
	require.NoError(t, err)
	assert.Equal(t, "*PASTORAL FAMILIAR - CONVITE* ✝️\n\n📅 *Evento:* Missa da Saúde\n🗓️ *Data:* 05/04/2026, 09:30:00\n📍 *Local:* Matriz\n\nContamos com sua presença!", link.Text)
	assert.Contains(t, link.URL, "https://wa.me/?text=")
	assert.NotContains(t, link.URL, "+")

	_, err = svc.ShareLink(context.Background(), "8")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
}

func TestEventServiceDriverTasks(t *testing.T) {
	withPhone := elder("E", "Centro")
	withPhone.Phone = "(11) 98888-7777"
	boards := &boardReaderStub{
		elders: []models.Elder{withPhone, elder("F", "Sul")},
		entries: []models.ScheduleEntry{
			models.NewScheduleEntry("2", "D1", "E"),
			models.NewScheduleEntry("2", "D2", "F"),
			models.NewScheduleEntry("2", "D1", "ghost"),
		},
	}
	svc, _ := newEventService([]models.Event{
		{ID: "1", StartsAt: "2026-05-01T09:00"},
		{ID: "2", StartsAt: "2026-06-01T09:00", Active: true},
		{ID: "3", StartsAt: "2026-07-01T09:00", Active: true},
	}, boards)

	tasks, err := svc.DriverTasks(context.Background(), driver("D1", "Centro"))
	require.NoError(t, err)
	assert.Equal(t, models.ID("2"), boards.eventID)
	require.NotNil(t, tasks.Event)
	require.Len(t, tasks.Passengers, 1)
	assert.Equal(t, models.ID("E"), tasks.Passengers[0].Elder.ID)
	assert.Equal(t, "https://wa.me/5511988887777", tasks.Passengers[0].WhatsAppURL)
	assert.Contains(t, tasks.Passengers[0].MapsURL, "https://www.google.com/maps/dir/?api=1&destination=")

	_, err = svc.DriverTasks(context.Background(), models.Member{ID: "M"})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestEventServiceDriverTasksWithoutActiveEvent(t *testing.T) {
	svc, _ := newEventService([]models.Event{{ID: "1", StartsAt: "2026-05-01T09:00"}}, &boardReaderStub{})
	tasks, err := svc.DriverTasks(context.Background(), driver("D1", "Centro"))
	require.NoError(t, err)
	assert.Nil(t, tasks.Event)
	assert.Empty(t, tasks.Passengers)
}
