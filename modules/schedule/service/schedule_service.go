package service

import (
	"context"
	"encoding/json"
	"time"

	"schedule-board/core/cache"
	"schedule-board/core/constants"
	"schedule-board/core/errors"
	"schedule-board/core/logger"
	"schedule-board/modules/schedule/dto"
	"schedule-board/modules/schedule/entity"
	"schedule-board/modules/schedule/feed"
	"schedule-board/modules/schedule/repository"

	"github.com/google/uuid"
	"github.com/gosimple/slug"
)

const weekCacheTTL = 30 * time.Second

// NotificationDispatcher decouples the schedule module from the notification
// module; the concrete implementation enqueues an async delivery task.
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, userID uuid.UUID, title, message string, data map[string]any) error
}

type ScheduleService struct {
	repo       *repository.ScheduleRepository
	pub        feed.Publisher
	cache      cache.Cache
	dispatcher NotificationDispatcher
	maxSlot    int
}

func NewScheduleService(repo *repository.ScheduleRepository, pub feed.Publisher, c cache.Cache, dispatcher NotificationDispatcher, maxSlotIndex int) *ScheduleService {
	if maxSlotIndex <= 0 || maxSlotIndex > entity.MaxSlotIndex() {
		maxSlotIndex = entity.MaxSlotIndex()
	}
	return &ScheduleService{repo: repo, pub: pub, cache: c, dispatcher: dispatcher, maxSlot: maxSlotIndex}
}

func weekCacheKey(organizationID uuid.UUID, week string) string {
	return constants.RedisScheduleWeekPrefix + organizationID.String() + ":" + week
}

// ListWeek returns the full week snapshot, serving from the redis cache when
// a fresh copy exists.
func (s *ScheduleService) ListWeek(ctx context.Context, organizationID uuid.UUID, weekStartDate string) ([]entity.ScheduleEntry, *errors.AppError) {
	week, err := entity.NormalizeWeekStart(weekStartDate)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
	}

	key := weekCacheKey(organizationID, week)
	if cached, cerr := s.cache.Get(ctx, key); cerr == nil && cached != "" {
		var entries []entity.ScheduleEntry
		if jerr := json.Unmarshal([]byte(cached), &entries); jerr == nil {
			return entries, nil
		}
	}

	entries, err := s.repo.ListWeek(ctx, organizationID, week)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrLoadFailed, "failed to load week schedule", err)
	}

	if payload, jerr := json.Marshal(entries); jerr == nil {
		if cerr := s.cache.Set(ctx, key, string(payload), weekCacheTTL); cerr != nil {
			logger.Warn("ScheduleService:ListWeek:CacheSet:Error", "error", cerr)
		}
	}
	return entries, nil
}

func (s *ScheduleService) Create(ctx context.Context, organizationID, actorID uuid.UUID, req *dto.CreateScheduleRequest) (*entity.ScheduleEntry, *errors.AppError) {
	week, err := entity.NormalizeWeekStart(req.WeekStartDate)
	if err != nil {
		return nil, errors.NewAppError(errors.ErrInvalidInput, err.Error(), err)
	}
	if appErr := s.validatePosition(req.DayOfWeek, req.TimeSlotIndex); appErr != nil {
		return nil, appErr
	}

	now := time.Now()
	entry := &entity.ScheduleEntry{
		ID:             uuid.NewString(),
		OrganizationID: organizationID,
		WeekStartDate:  week,
		DayOfWeek:      req.DayOfWeek,
		TimeSlotIndex:  req.TimeSlotIndex,
		DurationSlots:  req.DurationSlots,
		CourseID:       req.CourseID,
		CourseTitle:    req.CourseTitle,
		CourseCode:     req.CourseCode,
		CourseColor:    req.CourseColor,
		InstructorID:   req.InstructorID,
		InstructorName: req.InstructorName,
		Room:           req.Room,
		Notes:          req.Notes,
		ColorTag:       req.ColorTag,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if entry.DurationSlots <= 0 {
		entry.DurationSlots = 1
	}
	if entry.CourseCode == "" && entry.CourseTitle != "" {
		entry.CourseCode = slug.Make(entry.CourseTitle)
	}

	confirmed, err := s.repo.Insert(ctx, entry)
	if err != nil {
		if ae, ok := err.(*errors.AppError); ok {
			return nil, ae
		}
		return nil, errors.NewAppError(errors.ErrPersistence, "failed to create schedule entry", err)
	}

	s.afterWrite(ctx, organizationID, confirmed.WeekStartDate,
		feed.Event{Kind: feed.KindInsert, Record: confirmed})
	s.dispatch(ctx, actorID, "Schedule created", confirmed.CourseTitle+" placed on the week grid", confirmed)
	return confirmed, nil
}

func (s *ScheduleService) Update(ctx context.Context, organizationID, actorID uuid.UUID, id string, req *dto.UpdateScheduleRequest) (*entity.ScheduleEntry, *errors.AppError) {
	if appErr := s.validatePosition(req.DayOfWeek, req.TimeSlotIndex); appErr != nil {
		return nil, appErr
	}

	old, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if ae, ok := err.(*errors.AppError); ok {
			return nil, ae
		}
		return nil, errors.NewAppError(errors.ErrPersistence, "failed to load schedule entry", err)
	}
	if old.OrganizationID != organizationID {
		return nil, errors.NewAppError(errors.ErrNotFound, "schedule entry not found", nil)
	}

	entry := *old
	entry.DayOfWeek = req.DayOfWeek
	entry.TimeSlotIndex = req.TimeSlotIndex
	if req.DurationSlots > 0 {
		entry.DurationSlots = req.DurationSlots
	}
	entry.CourseID = req.CourseID
	entry.CourseTitle = req.CourseTitle
	entry.CourseCode = req.CourseCode
	entry.CourseColor = req.CourseColor
	entry.InstructorID = req.InstructorID
	entry.InstructorName = req.InstructorName
	entry.Room = req.Room
	entry.Notes = req.Notes
	entry.ColorTag = req.ColorTag
	if entry.CourseCode == "" && entry.CourseTitle != "" {
		entry.CourseCode = slug.Make(entry.CourseTitle)
	}

	updated, err := s.repo.UpdateByID(ctx, id, &entry, req.Version)
	if err != nil {
		if ae, ok := err.(*errors.AppError); ok {
			return nil, ae
		}
		return nil, errors.NewAppError(errors.ErrPersistence, "failed to update schedule entry", err)
	}

	s.afterWrite(ctx, organizationID, updated.WeekStartDate,
		feed.Event{Kind: feed.KindUpdate, Record: updated, OldRecord: old})
	s.dispatch(ctx, actorID, "Schedule updated", updated.CourseTitle+" updated", updated)
	return updated, nil
}

// Delete removes one entry by id. A missing id is treated as already deleted.
func (s *ScheduleService) Delete(ctx context.Context, organizationID, actorID uuid.UUID, id string) *errors.AppError {
	old, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.IsCode(err, errors.ErrNotFound) {
			return nil
		}
		return errors.NewAppError(errors.ErrPersistence, "failed to load schedule entry", err)
	}
	if old.OrganizationID != organizationID {
		return errors.NewAppError(errors.ErrNotFound, "schedule entry not found", nil)
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return errors.NewAppError(errors.ErrPersistence, "failed to delete schedule entry", err)
	}

	s.afterWrite(ctx, organizationID, old.WeekStartDate,
		feed.Event{Kind: feed.KindDelete, OldRecord: old})
	s.dispatch(ctx, actorID, "Schedule deleted", old.CourseTitle+" removed from the week grid", old)
	return nil
}

// SlotCatalog exposes the static slot list plus the configured accepted
// bound so clients can render and validate consistently.
func (s *ScheduleService) SlotCatalog() ([]entity.TimeSlot, int) {
	return entity.SlotCatalog(), s.maxSlot
}

func (s *ScheduleService) validatePosition(dayOfWeek, timeSlotIndex int) *errors.AppError {
	if !entity.ValidDay(dayOfWeek) {
		return errors.NewAppError(errors.ErrInvalidDay, "day of week must be between 0 (Monday) and 6 (Sunday)", nil)
	}
	if timeSlotIndex < 0 || timeSlotIndex > s.maxSlot {
		return errors.NewAppError(errors.ErrInvalidSlot,
			"time slot out of range; accepted: "+entity.SlotRangeDescription(s.maxSlot), nil)
	}
	return nil
}

// afterWrite publishes the change event and drops the stale week cache.
func (s *ScheduleService) afterWrite(ctx context.Context, organizationID uuid.UUID, week string, ev feed.Event) {
	if s.pub != nil {
		if err := s.pub.Publish(ctx, organizationID, ev); err != nil {
			logger.Warn("ScheduleService:Publish:Error", "error", err, "kind", ev.Kind)
		}
	}
	if err := s.cache.Del(ctx, weekCacheKey(organizationID, week)); err != nil {
		logger.Warn("ScheduleService:CacheInvalidate:Error", "error", err)
	}
}

func (s *ScheduleService) dispatch(ctx context.Context, actorID uuid.UUID, title, message string, entry *entity.ScheduleEntry) {
	if s.dispatcher == nil || actorID == uuid.Nil {
		return
	}
	data := map[string]any{
		"schedule_id":     entry.ID,
		"week_start_date": entry.WeekStartDate,
		"day_of_week":     entry.DayOfWeek,
		"time_slot_index": entry.TimeSlotIndex,
	}
	if err := s.dispatcher.Dispatch(ctx, actorID, title, message, data); err != nil {
		logger.Warn("ScheduleService:DispatchNotification:Error", "error", err)
	}
}
