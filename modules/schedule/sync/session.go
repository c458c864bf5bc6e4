// Package sync implements the realtime week-grid synchronization core: an
// in-memory schedule store fed by optimistic local mutations and a
// push-based change feed, with rollback on remote failure. It is
// transport-agnostic; the remote store, feed, and notification sink are
// supplied as interfaces.
package sync

import (
	"context"
	gosync "sync"
	"time"

	"schedule-board/core/constants"
	"schedule-board/core/errors"
	"schedule-board/core/logger"
	"schedule-board/core/utils"
	"schedule-board/modules/schedule/entity"
	"schedule-board/modules/schedule/feed"

	"github.com/google/uuid"
)

// RemoteStore is the persistence boundary the session writes through.
// Implementations surface position conflicts as ErrPositionConflict, lost
// updates as ErrStaleVersion and missing rows as ErrNotFound AppErrors.
type RemoteStore interface {
	ListWeek(ctx context.Context, organizationID uuid.UUID, weekStartDate string) ([]entity.ScheduleEntry, error)
	Insert(ctx context.Context, entry *entity.ScheduleEntry) (*entity.ScheduleEntry, error)
	UpdateByID(ctx context.Context, id string, entry *entity.ScheduleEntry, expectedVersion int) (*entity.ScheduleEntry, error)
	DeleteByID(ctx context.Context, id string) error
}

const (
	NotifySuccess = "success"
	NotifyError   = "error"
)

// Notification is a fire-and-forget user-facing status event.
type Notification struct {
	Title       string
	Description string
	Kind        string
}

type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Candidate is the caller's intent for a cell: display payload plus an
// optional known id and expected version.
type Candidate struct {
	ID             string
	CourseID       string
	CourseTitle    string
	CourseCode     string
	CourseColor    string
	InstructorID   string
	InstructorName string
	Room           string
	Notes          string
	ColorTag       string
	DurationSlots  int
	Version        int
}

type Options struct {
	OrganizationID uuid.UUID
	WeekStartDate  string

	// MaxSlotIndex bounds accepted slot indices, inclusive. Zero or out of
	// range means the full catalog is accepted.
	MaxSlotIndex int

	// RequestTimeout bounds each remote call. Zero means
	// constants.DefaultRequestTimeout.
	RequestTimeout time.Duration
}

// Session owns one (organization, week) view: the store, the optimistic
// ledger and the feed subscription. All store and ledger mutations happen
// under mu, so each mutation is atomic with respect to feed delivery.
type Session struct {
	opts     Options
	remote   RemoteStore
	feed     feed.Feed
	notifier Notifier

	mu        gosync.Mutex
	store     *Store
	ledger    *ledger
	sub       feed.Subscription
	feedState feed.State
	loading   bool
	lastErr   error
	closed    bool
}

func NewSession(remote RemoteStore, f feed.Feed, notifier Notifier, opts Options) (*Session, error) {
	week, err := entity.NormalizeWeekStart(opts.WeekStartDate)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, "invalid week start date", err)
	}
	opts.WeekStartDate = week

	if opts.MaxSlotIndex <= 0 || opts.MaxSlotIndex > entity.MaxSlotIndex() {
		opts.MaxSlotIndex = entity.MaxSlotIndex()
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = constants.DefaultRequestTimeout
	}

	return &Session{
		opts:      opts,
		remote:    remote,
		feed:      f,
		notifier:  notifier,
		store:     NewStore(),
		ledger:    newLedger(),
		feedState: feed.StateUnsubscribed,
	}, nil
}

// Start subscribes to the change feed and loads the current week snapshot.
// Subscribing first closes the window where a write committed during the
// bootstrap fetch would be missed.
func (s *Session) Start(ctx context.Context) error {
	if s.feed != nil {
		sub, err := s.feed.Subscribe(ctx, s.opts.OrganizationID, feed.Callbacks{
			OnEvent:       s.handleEvent,
			OnStateChange: s.handleStateChange,
		})
		if err != nil {
			logger.Error("SyncSession:Start:Subscribe:Error", "error", err)
			return errors.NewAppError(errors.ErrPersistence, "failed to subscribe to change feed", err)
		}
		s.mu.Lock()
		s.sub = sub
		s.mu.Unlock()
	}

	return s.Reload(ctx)
}

// Close tears the session down: subscription closed, ledger cleared. The
// store keeps its last contents for any final reads.
func (s *Session) Close() {
	s.mu.Lock()
	sub := s.sub
	s.sub = nil
	s.closed = true
	s.ledger.clear()
	s.feedState = feed.StateUnsubscribed
	s.mu.Unlock()

	if sub != nil {
		if err := sub.Close(); err != nil {
			logger.Warn("SyncSession:Close:Unsubscribe:Error", "error", err)
		}
	}
}

// Reload fetches the full week snapshot and replaces the store wholesale. On
// failure the store keeps its last-known-good contents.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	entries, err := s.remote.ListWeek(callCtx, s.opts.OrganizationID, s.opts.WeekStartDate)
	cancel()

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.lastErr = errors.NewAppError(errors.ErrLoadFailed, "failed to load week schedule", err)
		loadErr := s.lastErr
		s.mu.Unlock()
		logger.Error("SyncSession:Reload:Error", "error", err, "week", s.opts.WeekStartDate)
		s.notify(ctx, Notification{
			Title:       "Schedule load failed",
			Description: "Could not load the week schedule. Showing last known state.",
			Kind:        NotifyError,
		})
		return loadErr
	}
	s.store.ReplaceAll(entries)
	s.lastErr = nil
	s.mu.Unlock()
	return nil
}

// AddSchedule places or updates a course at (dayOfWeek, timeSlotIndex): it
// validates, applies the change optimistically, issues the remote write and
// commits or rolls back on the outcome.
func (s *Session) AddSchedule(ctx context.Context, dayOfWeek, timeSlotIndex int, candidate Candidate) (*entity.ScheduleEntry, *errors.AppError) {
	// Validation happens before any optimistic write so invalid input can
	// never corrupt the store.
	if !entity.ValidDay(dayOfWeek) {
		return nil, errors.NewAppError(errors.ErrInvalidDay, "day of week must be between 0 (Monday) and 6 (Sunday)", nil)
	}
	if timeSlotIndex < 0 || timeSlotIndex > s.opts.MaxSlotIndex {
		return nil, errors.NewAppError(errors.ErrInvalidSlot,
			"time slot out of range; accepted: "+entity.SlotRangeDescription(s.opts.MaxSlotIndex), nil)
	}

	s.mu.Lock()
	existing, exists := s.store.Get(dayOfWeek, timeSlotIndex)

	// This is an update when the candidate carries a durable id, or when the
	// target cell is already occupied by a confirmed entry (covers resize or
	// drag operations that land on an occupied cell without an id).
	candidateDurable := candidate.ID != "" && !utils.IsTempID(candidate.ID)
	isUpdate := candidateDurable || (exists && existing.IsPersisted())

	id := candidate.ID
	if id == "" {
		if exists {
			id = existing.ID
		} else {
			id = utils.NewTempID()
		}
	}

	var original *entity.ScheduleEntry
	if exists {
		copied := existing
		original = &copied
	}

	optimistic := s.buildEntry(dayOfWeek, timeSlotIndex, candidate, original, id, isUpdate)
	s.store.Upsert(optimistic)
	s.ledger.record(id, original, !isUpdate)
	s.mu.Unlock()

	var (
		confirmed *entity.ScheduleEntry
		err       error
	)
	if isUpdate {
		durableID := candidate.ID
		if !candidateDurable {
			durableID = ""
			if exists && existing.IsPersisted() {
				durableID = existing.ID
			}
		}
		if durableID == "" {
			err = errors.NewAppError(errors.ErrMissingID, "update requires a confirmed schedule id", nil)
		} else {
			expectedVersion := optimistic.Version - 1
			callCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
			confirmed, err = s.remote.UpdateByID(callCtx, durableID, &optimistic, expectedVersion)
			cancel()
		}
	} else {
		callCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
		confirmed, err = s.remote.Insert(callCtx, &optimistic)
		cancel()
	}

	if err != nil {
		appErr := s.mapMutationError(err, isUpdate)
		s.rollback(id, dayOfWeek, timeSlotIndex)
		s.notify(ctx, Notification{
			Title:       "Schedule not saved",
			Description: appErr.Message,
			Kind:        NotifyError,
		})
		if appErr.Code == errors.ErrStaleVersion {
			// Self-heal: reconverge with the server after a lost update.
			if rerr := s.Reload(ctx); rerr != nil {
				logger.Warn("SyncSession:AddSchedule:StaleReload:Error", "error", rerr)
			}
		}
		return nil, appErr
	}

	if confirmed == nil {
		confirmed = &optimistic
	}

	s.mu.Lock()
	s.ledger.take(id)
	// The feed echo is the authoritative settle; writing the confirmed
	// record here just removes any gap before it arrives.
	s.store.Upsert(*confirmed)
	s.mu.Unlock()

	s.notify(ctx, Notification{
		Title:       "Schedule saved",
		Description: confirmed.CourseTitle + " at " + entity.PositionKey(dayOfWeek, timeSlotIndex),
		Kind:        NotifySuccess,
	})
	return confirmed, nil
}

// RemoveSchedule deletes whatever occupies (dayOfWeek, timeSlotIndex).
// Removing an empty cell is a no-op.
func (s *Session) RemoveSchedule(ctx context.Context, dayOfWeek, timeSlotIndex int) *errors.AppError {
	s.mu.Lock()
	existing, ok := s.store.Get(dayOfWeek, timeSlotIndex)
	s.mu.Unlock()
	if !ok {
		return nil
	}
	return s.Delete(ctx, existing.ID)
}

// Delete removes the entry with the given id. Unknown ids are a no-op so
// delete is idempotent.
func (s *Session) Delete(ctx context.Context, id string) *errors.AppError {
	s.mu.Lock()
	removed, ok := s.store.FindByID(id)
	if !ok {
		s.mu.Unlock()
		return nil
	}
	s.store.Remove(removed.DayOfWeek, removed.TimeSlotIndex)
	s.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, s.opts.RequestTimeout)
	err := s.remote.DeleteByID(callCtx, id)
	cancel()

	if err != nil {
		s.mu.Lock()
		s.store.Upsert(removed)
		s.mu.Unlock()
		appErr := errors.NewAppError(errors.ErrPersistence, "failed to delete schedule entry", err)
		s.notify(ctx, Notification{
			Title:       "Schedule not deleted",
			Description: appErr.Message,
			Kind:        NotifyError,
		})
		return appErr
	}

	s.notify(ctx, Notification{
		Title:       "Schedule deleted",
		Description: removed.CourseTitle + " removed",
		Kind:        NotifySuccess,
	})
	return nil
}

func (s *Session) GetSchedule(dayOfWeek, timeSlotIndex int) (entity.ScheduleEntry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(dayOfWeek, timeSlotIndex)
}

func (s *Session) HasSchedule(dayOfWeek, timeSlotIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Has(dayOfWeek, timeSlotIndex)
}

// Schedules returns a snapshot of the current grid keyed by position.
func (s *Session) Schedules() map[string]entity.ScheduleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Snapshot()
}

func (s *Session) SchedulesForDay(dayOfWeek int) map[int]entity.ScheduleEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.GetForDay(dayOfWeek)
}

func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

func (s *Session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

func (s *Session) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedState == feed.StateLive
}

func (s *Session) FeedState() feed.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feedState
}

// SlotCatalog exposes the static slot list for grid rendering.
func (s *Session) SlotCatalog() []entity.TimeSlot {
	return entity.SlotCatalog()
}

// buildEntry assembles the optimistic record: existing fields first, then
// the candidate's non-empty fields layered on top.
func (s *Session) buildEntry(dayOfWeek, timeSlotIndex int, c Candidate, existing *entity.ScheduleEntry, id string, isUpdate bool) entity.ScheduleEntry {
	var e entity.ScheduleEntry
	if existing != nil {
		e = *existing
	}

	e.ID = id
	e.OrganizationID = s.opts.OrganizationID
	e.WeekStartDate = s.opts.WeekStartDate
	e.DayOfWeek = dayOfWeek
	e.TimeSlotIndex = timeSlotIndex

	if c.CourseID != "" {
		e.CourseID = c.CourseID
	}
	if c.CourseTitle != "" {
		e.CourseTitle = c.CourseTitle
	}
	if c.CourseCode != "" {
		e.CourseCode = c.CourseCode
	}
	if c.CourseColor != "" {
		e.CourseColor = c.CourseColor
	}
	if c.InstructorID != "" {
		e.InstructorID = c.InstructorID
	}
	if c.InstructorName != "" {
		e.InstructorName = c.InstructorName
	}
	if c.Room != "" {
		e.Room = c.Room
	}
	if c.Notes != "" {
		e.Notes = c.Notes
	}
	if c.ColorTag != "" {
		e.ColorTag = c.ColorTag
	}
	if c.DurationSlots > 0 {
		e.DurationSlots = c.DurationSlots
	}
	if e.DurationSlots <= 0 {
		e.DurationSlots = 1
	}

	if isUpdate {
		if existing != nil {
			e.Version = existing.Version + 1
		} else {
			e.Version = c.Version + 1
		}
	} else {
		e.Version = 1
	}
	e.UpdatedAt = time.Now()
	return e
}

func (s *Session) mapMutationError(err error, isUpdate bool) *errors.AppError {
	if ae, ok := err.(*errors.AppError); ok {
		switch ae.Code {
		case errors.ErrMissingID, errors.ErrStaleVersion:
			return ae
		case errors.ErrPositionConflict:
			if !isUpdate {
				return ae
			}
		}
		return errors.NewAppError(errors.ErrPersistence, ae.Message, ae)
	}
	return errors.NewAppError(errors.ErrPersistence, err.Error(), err)
}

// rollback restores the pre-mutation state for id. When the ledger entry is
// gone a confirmed feed event already superseded the optimistic write, so
// there is nothing to undo.
func (s *Session) rollback(id string, dayOfWeek, timeSlotIndex int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.ledger.take(id)
	if !ok {
		return
	}
	if entry.original != nil {
		s.store.Upsert(*entry.original)
	} else {
		s.store.Remove(dayOfWeek, timeSlotIndex)
	}
}

// handleEvent merges one inbound change into the store. Events for other
// weeks never touch the store; the channel is scoped by organization only.
func (s *Session) handleEvent(ev feed.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	image := ev.Record
	if ev.Kind == feed.KindDelete {
		image = ev.OldRecord
	}
	if image == nil || image.WeekStartDate != s.opts.WeekStartDate {
		return
	}

	switch ev.Kind {
	case feed.KindInsert:
		// Authoritative commit; overwriting an optimistic placeholder at the
		// same position is last-writer-wins by arrival order.
		s.store.Upsert(*ev.Record)

	case feed.KindUpdate:
		if ev.OldRecord != nil && ev.OldRecord.Position() != ev.Record.Position() {
			// The row moved cells; drop the stale image before applying.
			s.store.Remove(ev.OldRecord.DayOfWeek, ev.OldRecord.TimeSlotIndex)
			s.store.Upsert(*ev.Record)
			break
		}
		existing, ok := s.store.Get(ev.Record.DayOfWeek, ev.Record.TimeSlotIndex)
		if !ok {
			// Inserts are delivered before updates; an unknown position is
			// ignored rather than resurrected.
			break
		}
		merged := *ev.Record
		if merged.ColorTag == "" {
			merged.ColorTag = existing.ColorTag
		}
		s.store.Upsert(merged)

	case feed.KindDelete:
		s.store.Remove(ev.OldRecord.DayOfWeek, ev.OldRecord.TimeSlotIndex)
	}

	// Any confirmed server event supersedes all pending optimism.
	s.ledger.clear()
}

func (s *Session) handleStateChange(state feed.State, err error) {
	s.mu.Lock()
	s.feedState = state
	s.mu.Unlock()
	if err != nil {
		logger.Warn("SyncSession:FeedState", "state", state, "error", err)
	}
}

func (s *Session) notify(ctx context.Context, n Notification) {
	if s.notifier == nil {
		return
	}
	s.notifier.Notify(ctx, n)
}
