package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pastoral-familiar/pastoral-api/internal/dto"
	"github.com/pastoral-familiar/pastoral-api/internal/models"
	appErrors "github.com/pastoral-familiar/pastoral-api/pkg/errors"
	"github.com/pastoral-familiar/pastoral-api/pkg/jobs"
	"github.com/pastoral-familiar/pastoral-api/pkg/middleware/requestid"
)

// PersistJobType identifies schedule batch writes on the jobs queue.
const PersistJobType = "schedule.replace"

type elderLister interface {
	List(ctx context.Context) ([]models.Elder, error)
}

type memberLister interface {
	List(ctx context.Context) ([]models.Member, error)
}

type eventLister interface {
	List(ctx context.Context) ([]models.Event, error)
}

type scheduleStore interface {
	ListByEvent(ctx context.Context, eventID models.ID) ([]models.ScheduleEntry, error)
	ReplaceBatch(ctx context.Context, batch models.ScheduleBatch) error
}

type persistAuditWriter interface {
	Create(ctx context.Context, audit *models.PersistAudit) error
}

type persistDispatcher interface {
	Enqueue(job jobs.Job) error
}

// EntryUpdate changes one field of a schedule entry.
type EntryUpdate interface {
	apply(entry *models.ScheduleEntry) bool
	validate() error
}

// SetStatus replaces the entry status.
type SetStatus struct {
	Status models.EntryStatus
}

func (u SetStatus) apply(entry *models.ScheduleEntry) bool {
	if entry.Status == u.Status {
		return false
	}
	entry.Status = u.Status
	return true
}

func (u SetStatus) validate() error {
	if !u.Status.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown status %q", u.Status))
	}
	return nil
}

// SetTripType replaces the entry trip type.
type SetTripType struct {
	TripType models.TripType
}

func (u SetTripType) apply(entry *models.ScheduleEntry) bool {
	if entry.TripType == u.TripType {
		return false
	}
	entry.TripType = u.TripType
	return true
}

func (u SetTripType) validate() error {
	if !u.TripType.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown trip type %q", u.TripType))
	}
	return nil
}

// persistPayload is one full-collection snapshot awaiting its batch write.
type persistPayload struct {
	EventID   models.ID
	Seq       int64
	Operation string
	Entries   []models.ScheduleEntry
	RequestID string
}

// board is the in-memory allocation state of one event. Entries are the authoritative
// uncommitted state between writes.
type board struct {
	mu      sync.Mutex
	event   models.Event
	elders  []models.Elder
	drivers []models.Member
	entries []models.ScheduleEntry
	// seq is the last persist sequence issued for the event, surviving reloads.
	seq int64
}

// AllocationConfig tunes the allocation engine.
type AllocationConfig struct {
	PersistTimeout time.Duration
}

// AllocationService assigns elders to drivers per event. Mutations apply locally first and
// enqueue a full-collection replace; persistence failures are logged and audited but never
// rolled back. With more than one persist worker overlapping writes may land out of order
// and the last write to arrive wins.
type AllocationService struct {
	elders     elderLister
	members    memberLister
	events     eventLister
	schedules  scheduleStore
	audit      persistAuditWriter
	dispatcher persistDispatcher
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	config     AllocationConfig
	now        func() time.Time

	mu     sync.Mutex
	boards map[models.ID]*board
	seqs   map[models.ID]int64
}

// NewAllocationService wires the allocation engine. audit and metrics may be nil.
func NewAllocationService(
	elders elderLister,
	members memberLister,
	events eventLister,
	schedules scheduleStore,
	audit persistAuditWriter,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg AllocationConfig,
) *AllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PersistTimeout <= 0 {
		cfg.PersistTimeout = 15 * time.Second
	}
	return &AllocationService{
		elders:    elders,
		members:   members,
		events:    events,
		schedules: schedules,
		audit:     audit,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    cfg,
		now:       time.Now,
		boards:    make(map[models.ID]*board),
		seqs:      make(map[models.ID]int64),
	}
}

// UseDispatcher sets the queue that carries batch writes. It must be called before serving.
func (s *AllocationService) UseDispatcher(d persistDispatcher) {
	s.dispatcher = d
}

// Open loads a fresh board for the event, discarding any board already held.
func (s *AllocationService) Open(ctx context.Context, eventID models.ID) (*dto.BoardView, error) {
	b, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.boards[eventID] = b
	loaded := len(s.boards)
	s.mu.Unlock()
	s.metrics.SetBoardsLoaded(loaded)

	b.mu.Lock()
	defer b.mu.Unlock()
	return s.view(b), nil
}

// Board returns the current board, loading it when not held yet.
func (s *AllocationService) Board(ctx context.Context, eventID models.ID) (*dto.BoardView, error) {
	b, err := s.board(ctx, eventID)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return s.view(b), nil
}

// Entries returns a copy of the event's entries together with the elders and drivers they reference.
func (s *AllocationService) Entries(ctx context.Context, eventID models.ID) (models.Event, []models.ScheduleEntry, []models.Elder, []models.Member, error) {
	b, err := s.board(ctx, eventID)
	if err != nil {
		return models.Event{}, nil, nil, nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.event, cloneEntries(b.entries), b.elders, b.drivers, nil
}

// Assign places an elder with a driver, replacing any existing entry for that elder.
func (s *AllocationService) Assign(ctx context.Context, eventID models.ID, req dto.AssignRequest) (*dto.MutationResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	b, err := s.board(ctx, eventID)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := findElder(b.elders, req.ElderID); !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "elder not found")
	}
	if _, ok := findMember(b.drivers, req.DriverID); !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "member is not a registered driver")
	}

	entry := models.NewScheduleEntry(eventID, req.DriverID, req.ElderID)
	b.entries = append(withoutElder(b.entries, req.ElderID), entry)
	seq := s.persist(ctx, b, models.PersistOpAssign)

	return &dto.MutationResult{Entry: &entry, Changed: true, PersistSeq: seq}, nil
}

// Unassign removes the elder's entry. Unassigning an elder without an entry changes nothing.
func (s *AllocationService) Unassign(ctx context.Context, eventID, elderID models.ID) (*dto.MutationResult, error) {
	b, err := s.board(ctx, eventID)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := findEntry(b.entries, elderID); !ok {
		return &dto.MutationResult{Changed: false}, nil
	}
	b.entries = withoutElder(b.entries, elderID)
	seq := s.persist(ctx, b, models.PersistOpUnassign)

	return &dto.MutationResult{Changed: true, PersistSeq: seq}, nil
}

// Update applies one field change to the elder's entry. A missing entry is a no-op.
func (s *AllocationService) Update(ctx context.Context, eventID, elderID models.ID, update EntryUpdate) (*dto.MutationResult, error) {
	if update == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no field to update")
	}
	if err := update.validate(); err != nil {
		return nil, err
	}
	return s.mutateEntry(ctx, eventID, elderID, update.apply)
}

// CycleStatus advances Planned, Confirmed, Completed, Cancelled and back to Planned.
func (s *AllocationService) CycleStatus(ctx context.Context, eventID, elderID models.ID) (*dto.MutationResult, error) {
	return s.mutateEntry(ctx, eventID, elderID, func(entry *models.ScheduleEntry) bool {
		entry.Status = entry.Status.Next()
		return true
	})
}

// CycleTripType advances Outbound, Return, Both and back to Outbound.
func (s *AllocationService) CycleTripType(ctx context.Context, eventID, elderID models.ID) (*dto.MutationResult, error) {
	return s.mutateEntry(ctx, eventID, elderID, func(entry *models.ScheduleEntry) bool {
		entry.TripType = entry.TripType.Next()
		return true
	})
}

// AutoMatch runs the neighborhood heuristic over the board and persists the merged result in one batch.
func (s *AllocationService) AutoMatch(ctx context.Context, eventID models.ID) (*dto.AutoMatchResult, error) {
	b, err := s.board(ctx, eventID)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	created := AutoMatch(b.elders, b.drivers, b.entries, eventID)
	result := &dto.AutoMatchResult{Created: created}
	if created == nil {
		result.Created = []models.ScheduleEntry{}
	}
	if len(created) > 0 {
		b.entries = append(b.entries, created...)
		result.PersistSeq = s.persist(ctx, b, models.PersistOpAutoMatch)
	}
	result.Remaining = len(UnassignedElders(b.elders, b.entries))
	s.metrics.AddAutoMatched(len(created))

	s.logger.Info("auto-match completed",
		zap.String("event_id", eventID.String()),
		zap.Int("created", len(created)),
		zap.Int("remaining", result.Remaining),
	)
	return result, nil
}

// HandlePersistJob performs one batch write. It is the jobs.Handler of the persist queue.
func (s *AllocationService) HandlePersistJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(persistPayload)
	if !ok {
		return fmt.Errorf("unexpected persist payload %T", job.Payload)
	}

	// acknowledged mutations must reach the backend even while the queue shuts down
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.config.PersistTimeout)
	defer cancel()
	if payload.RequestID != "" {
		writeCtx = requestid.WithValue(writeCtx, payload.RequestID)
	}

	start := s.now()
	err := s.schedules.ReplaceBatch(writeCtx, models.ScheduleBatch{EventID: payload.EventID, Entries: payload.Entries})
	s.metrics.ObservePersist(payload.Operation, err == nil, s.now().Sub(start))
	s.recordAudit(ctx, payload, err)

	if err != nil {
		s.logger.Error("schedule persist failed",
			zap.String("event_id", payload.EventID.String()),
			zap.Int64("persist_seq", payload.Seq),
			zap.String("operation", payload.Operation),
			zap.Error(err),
		)
		return err
	}
	s.logger.Debug("schedule persisted",
		zap.String("event_id", payload.EventID.String()),
		zap.Int64("persist_seq", payload.Seq),
		zap.Int("entries", len(payload.Entries)),
	)
	return nil
}

// HandleDroppedPersist logs and audits batch writes the queue abandoned before they ran.
// Writes that ran and failed were already recorded by HandlePersistJob.
func (s *AllocationService) HandleDroppedPersist(job jobs.Job, err error) {
	if !errors.Is(err, jobs.ErrQueueStopped) {
		return
	}
	payload, ok := job.Payload.(persistPayload)
	if !ok {
		return
	}
	s.logger.Error("schedule persist abandoned",
		zap.String("event_id", payload.EventID.String()),
		zap.Int64("persist_seq", payload.Seq),
		zap.String("operation", payload.Operation),
		zap.Error(err),
	)
	s.metrics.ObservePersist(payload.Operation, false, 0)
	s.recordAudit(context.Background(), payload, err)
}

func (s *AllocationService) mutateEntry(ctx context.Context, eventID, elderID models.ID, fn func(*models.ScheduleEntry) bool) (*dto.MutationResult, error) {
	b, err := s.board(ctx, eventID)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	idx, ok := findEntry(b.entries, elderID)
	if !ok {
		return &dto.MutationResult{Changed: false}, nil
	}
	updated := b.entries[idx]
	if !fn(&updated) {
		return &dto.MutationResult{Entry: &updated, Changed: false}, nil
	}
	b.entries[idx] = updated
	seq := s.persist(ctx, b, models.PersistOpUpdate)

	return &dto.MutationResult{Entry: &updated, Changed: true, PersistSeq: seq}, nil
}

// persist enqueues a snapshot of the board. Callers hold b.mu.
func (s *AllocationService) persist(ctx context.Context, b *board, operation string) int64 {
	s.mu.Lock()
	s.seqs[b.event.ID]++
	b.seq = s.seqs[b.event.ID]
	s.mu.Unlock()

	payload := persistPayload{
		EventID:   b.event.ID,
		Seq:       b.seq,
		Operation: operation,
		Entries:   cloneEntries(b.entries),
		RequestID: requestid.FromContext(ctx),
	}

	if s.dispatcher == nil {
		err := fmt.Errorf("no persist dispatcher configured")
		s.logger.Error("schedule persist not dispatched", zap.String("event_id", b.event.ID.String()), zap.Error(err))
		s.recordAudit(ctx, payload, err)
		return b.seq
	}

	job := jobs.Job{ID: uuid.NewString(), Type: PersistJobType, Payload: payload}
	if err := s.dispatcher.Enqueue(job); err != nil {
		s.logger.Error("schedule persist not dispatched",
			zap.String("event_id", b.event.ID.String()),
			zap.Int64("persist_seq", b.seq),
			zap.Error(err),
		)
		s.metrics.ObservePersist(operation, false, 0)
		s.recordAudit(ctx, payload, err)
	}
	return b.seq
}

func (s *AllocationService) recordAudit(ctx context.Context, payload persistPayload, persistErr error) {
	if s.audit == nil {
		return
	}
	record := &models.PersistAudit{
		EventID:    payload.EventID.String(),
		PersistSeq: payload.Seq,
		Operation:  payload.Operation,
		EntryCount: len(payload.Entries),
		Outcome:    models.PersistOutcomeSucceeded,
	}
	if persistErr != nil {
		msg := persistErr.Error()
		record.Outcome = models.PersistOutcomeFailed
		record.ErrorMessage = &msg
	}
	if payload.RequestID != "" {
		reqID := payload.RequestID
		record.RequestID = &reqID
	}

	start := s.now()
	auditCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.audit.Create(auditCtx, record); err != nil {
		s.logger.Warn("failed to record persist audit", zap.Error(err))
	}
	s.metrics.ObserveDBQuery("persist_audit_insert", s.now().Sub(start))
}

func (s *AllocationService) board(ctx context.Context, eventID models.ID) (*board, error) {
	s.mu.Lock()
	b, ok := s.boards[eventID]
	s.mu.Unlock()
	if ok {
		return b, nil
	}

	loaded, err := s.load(ctx, eventID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// another request may have loaded it meanwhile
	if existing, ok := s.boards[eventID]; ok {
		return existing, nil
	}
	s.boards[eventID] = loaded
	s.metrics.SetBoardsLoaded(len(s.boards))
	return loaded, nil
}

func (s *AllocationService) load(ctx context.Context, eventID models.ID) (*board, error) {
	if eventID.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "event id is required")
	}

	var (
		events  []models.Event
		elders  []models.Elder
		members []models.Member
		entries []models.ScheduleEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		events, err = s.events.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		elders, err = s.elders.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		members, err = s.members.List(gctx)
		return err
	})
	g.Go(func() (err error) {
		entries, err = s.schedules.ListByEvent(gctx, eventID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, appErrors.FromError(err)
	}

	event, ok := findEvent(events, eventID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "event not found")
	}
	for i := range entries {
		if entries[i].EventID.IsZero() {
			entries[i].EventID = eventID
		}
	}

	s.mu.Lock()
	seq := s.seqs[eventID]
	s.mu.Unlock()

	return &board{
		event:   event,
		elders:  elders,
		drivers: models.Drivers(members),
		entries: entries,
		seq:     seq,
	}, nil
}

// view renders the board. Callers hold b.mu.
func (s *AllocationService) view(b *board) *dto.BoardView {
	eldersByID := make(map[models.ID]models.Elder, len(b.elders))
	for _, e := range b.elders {
		eldersByID[e.ID] = e
	}

	orphaned := 0
	for _, entry := range b.entries {
		if _, ok := eldersByID[entry.ElderID]; !ok {
			orphaned++
		}
	}

	lanes := make([]dto.DriverLane, 0, len(b.drivers))
	for _, d := range b.drivers {
		lanes = append(lanes, dto.DriverLane{Driver: d, Passengers: passengersOf(d.ID, b.entries, eldersByID)})
	}

	return &dto.BoardView{
		Event:           models.EventView{Event: b.event, Status: DeriveEventStatus(bool(b.event.Active), b.event.StartsAt, s.now())},
		Drivers:         lanes,
		Unassigned:      UnassignedElders(b.elders, b.entries),
		Entries:         len(b.entries),
		OrphanedEntries: orphaned,
		PersistSeq:      b.seq,
	}
}

// passengersOf joins a driver's entries with elder records, dropping entries whose elder no longer exists.
func passengersOf(driverID models.ID, entries []models.ScheduleEntry, eldersByID map[models.ID]models.Elder) []dto.Passenger {
	passengers := make([]dto.Passenger, 0)
	for _, entry := range entries {
		if entry.DriverID != driverID {
			continue
		}
		e, ok := eldersByID[entry.ElderID]
		if !ok {
			continue
		}
		passengers = append(passengers, dto.Passenger{Elder: e, Entry: entry})
	}
	return passengers
}

func withoutElder(entries []models.ScheduleEntry, elderID models.ID) []models.ScheduleEntry {
	filtered := make([]models.ScheduleEntry, 0, len(entries)+1)
	for _, entry := range entries {
		if entry.ElderID != elderID {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

func cloneEntries(entries []models.ScheduleEntry) []models.ScheduleEntry {
	out := make([]models.ScheduleEntry, len(entries))
	copy(out, entries)
	return out
}

func findEntry(entries []models.ScheduleEntry, elderID models.ID) (int, bool) {
	for i, entry := range entries {
		if entry.ElderID == elderID {
			return i, true
		}
	}
	return -1, false
}

func findElder(elders []models.Elder, id models.ID) (models.Elder, bool) {
	for _, e := range elders {
		if e.ID == id {
			return e, true
		}
	}
	return models.Elder{}, false
}

func findMember(members []models.Member, id models.ID) (models.Member, bool) {
	for _, m := range members {
		if m.ID == id {
			return m, true
		}
	}
	return models.Member{}, false
}

func findEvent(events []models.Event, id models.ID) (models.Event, bool) {
	for _, e := range events {
		if e.ID == id {
			return e, true
		}
	}
	return models.Event{}, false
}
