package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/pastoral-familiar/pastoral-api/internal/dto"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
	appErrors "github.com/pastoral-familiar/pastoral-api/pkg/errors"
)

// eventTimeLayouts are the start-time encodings the backend and the event form produce.
var eventTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseEventTime parses an event start. Values without a zone are read in loc.
func ParseEventTime(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.Local
	}
	for _, layout := range eventTimeLayouts {
		if t, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DeriveEventStatus classifies an event. A start in the past wins over the active flag.
func DeriveEventStatus(active bool, start string, now time.Time) models.EventStatus {
	startsAt, ok := ParseEventTime(start, now.Location())
	if !ok {
		return models.EventStatusInvalidDate
	}
	if startsAt.Before(now) {
		return models.EventStatusCompleted
	}
	if active {
		return models.EventStatusActive
	}
	return models.EventStatusScheduled
}

func formatLocalDateTime(raw string, loc *time.Location) string {
	t, ok := ParseEventTime(raw, loc)
	if !ok {
		return raw
	}
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format("02/01/2006, 15:04:05")
}

type eventStore interface {
	List(ctx context.Context) ([]models.Event, error)
	Duplicate(ctx context.Context, id models.ID, newDate string) error
}

type boardReader interface {
	Entries(ctx context.Context, eventID models.ID) (models.Event, []models.ScheduleEntry, []models.Elder, []models.Member, error)
}

// EventService lists events and builds the driver and invitation views around them.
type EventService struct {
	repo      eventStore
	boards    boardReader
	validator *validator.Validate
	logger    *zap.Logger
	location  *time.Location
	now       func() time.Time
}

// NewEventService constructs EventService. A nil location reads zone-less start times as local time.
func NewEventService(repo eventStore, boards boardReader, validate *validator.Validate, logger *zap.Logger, loc *time.Location) *EventService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.Local
	}
	return &EventService{
		repo:      repo,
		boards:    boards,
		validator: validate,
		logger:    logger,
		location:  loc,
		now:       time.Now,
	}
}

// List returns every event with its derived status.
func (s *EventService) List(ctx context.Context) ([]models.EventView, error) {
	events, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now().In(s.location)
	views := make([]models.EventView, 0, len(events))
	for _, e := range events {
		views = append(views, models.EventView{Event: e, Status: DeriveEventStatus(bool(e.Active), e.StartsAt, now)})
	}
	return views, nil
}

// ActiveEvents returns events carrying the active flag, in backend order. More than one
// may be flagged; callers that need a single event take the first.
func (s *EventService) ActiveEvents(ctx context.Context) ([]models.EventView, error) {
	views, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	active := make([]models.EventView, 0, len(views))
	for _, v := range views {
		if v.Active {
			active = append(active, v)
		}
	}
	return active, nil
}

// Get returns one event by id.
func (s *EventService) Get(ctx context.Context, id models.ID) (*models.EventView, error) {
	views, err := s.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range views {
		if views[i].ID == id {
			return &views[i], nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
}

// Duplicate asks the backend to copy an event and its schedule to a new date.
func (s *EventService) Duplicate(ctx context.Context, id models.ID, req dto.DuplicateEventRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "new date is required")
	}
	if _, ok := ParseEventTime(req.NewDate, s.location); !ok {
		return appErrors.Clone(appErrors.ErrValidation, "new date is not a valid date")
	}
	if err := s.repo.Duplicate(ctx, id, req.NewDate); err != nil {
		return err
	}
	s.logger.Info("event duplicated", zap.String("event_id", id.String()), zap.String("new_date", req.NewDate))
	return nil
}

// ShareLink builds the WhatsApp invitation for an event.
func (s *EventService) ShareLink(ctx context.Context, id models.ID) (*dto.ShareLink, error) {
	view, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	text := EventInvitation(view.Event, s.location)
	return &dto.ShareLink{Text: text, URL: WhatsAppURL("", text)}, nil
}

// DriverTasks returns the driver's passengers for the first active event. Without an active
// event the result carries no event and no passengers.
func (s *EventService) DriverTasks(ctx context.Context, driver models.Member) (*dto.DriverTasks, error) {
	if !driver.IsDriver() {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "member has no vehicle registered")
	}

	active, err := s.ActiveEvents(ctx)
	if err != nil {
		return nil, err
	}
	tasks := &dto.DriverTasks{Passengers: []dto.TaskPassenger{}}
	if len(active) == 0 {
		return tasks, nil
	}
	current := active[0]

	_, entries, elders, _, err := s.boards.Entries(ctx, current.ID)
	if err != nil {
		return nil, err
	}
	eldersByID := make(map[models.ID]models.Elder, len(elders))
	for _, e := range elders {
		eldersByID[e.ID] = e
	}
	for _, p := range passengersOf(driver.ID, entries, eldersByID) {
		task := dto.TaskPassenger{Passenger: p, MapsURL: MapsURL(p.Elder)}
		if NormalizePhone(p.Elder.Phone) != "" {
			task.WhatsAppURL = WhatsAppURL(p.Elder.Phone, "")
		}
		tasks.Passengers = append(tasks.Passengers, task)
	}
	tasks.Event = &current
	return tasks, nil
}
