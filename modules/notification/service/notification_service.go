package service

import (
	"context"
	"time"

	coreEntity "schedule-board/core/entity"
	"schedule-board/core/logger"
	"schedule-board/core/params"
	"schedule-board/modules/notification/dto"
	"schedule-board/modules/notification/entity"
	"schedule-board/modules/notification/repository"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type NotificationService struct {
	repo   *repository.NotificationRepository
	client *asynq.Client
}

func NewNotificationService(repo *repository.NotificationRepository, client *asynq.Client) *NotificationService {
	return &NotificationService{repo: repo, client: client}
}

// Create persists a notification synchronously. Prefer Dispatch on hot paths.
func (s *NotificationService) Create(ctx context.Context, req *dto.CreateNotificationRequest) error {
	kind := req.Kind
	if kind == "" {
		kind = entity.KindScheduleChange
	}
	notif := &entity.Notification{
		UserID:  req.UserID,
		Title:   req.Title,
		Message: req.Message,
		Kind:    kind,
		Data:    entity.JSONB(req.Data),
		IsRead:  false,
		BaseEntity: coreEntity.BaseEntity{
			CreatedAt: time.Now(),
			UpdatedAt: time.Now(),
		},
	}
	return s.repo.Create(ctx, notif)
}

// Dispatch enqueues the notification for background delivery. Falls back to
// a synchronous write when no queue client is configured.
func (s *NotificationService) Dispatch(ctx context.Context, userID uuid.UUID, title, message string, data map[string]any) error {
	req := dto.CreateNotificationRequest{
		UserID:  userID,
		Title:   title,
		Message: message,
		Kind:    entity.KindScheduleChange,
		Data:    data,
	}

	if s.client == nil {
		return s.Create(ctx, &req)
	}

	task, err := NewDeliverTask(req)
	if err != nil {
		return err
	}
	if _, err := s.client.EnqueueContext(ctx, task); err != nil {
		logger.Error("NotificationService:Dispatch:Enqueue:Error:", err)
		return err
	}
	return nil
}

func (s *NotificationService) GetMyNotifications(ctx context.Context, userID uuid.UUID, kind string, queryParams params.QueryParams) (*entity.PaginatedNotificationEntity, error) {
	return s.repo.List(ctx, userID, kind, queryParams)
}

// MarkRead with an empty id list marks everything read.
func (s *NotificationService) MarkRead(ctx context.Context, userID uuid.UUID, ids []string) error {
	return s.repo.MarkRead(ctx, userID, ids)
}

// PruneRead deletes read notifications older than the retention window.
func (s *NotificationService) PruneRead(ctx context.Context, userID uuid.UUID, retention time.Duration) error {
	return s.repo.DeleteRead(ctx, userID, time.Now().Add(-retention))
}

func (s *NotificationService) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}
