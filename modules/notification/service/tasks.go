package service

import (
	"context"
	"encoding/json"

	"schedule-board/core/constants"
	"schedule-board/core/logger"
	"schedule-board/modules/notification/dto"

	"github.com/hibiken/asynq"
)

// DeliverPayload is the asynq task payload for one notification delivery.
type DeliverPayload struct {
	Request dto.CreateNotificationRequest `json:"request"`
}

func NewDeliverTask(req dto.CreateNotificationRequest) (*asynq.Task, error) {
	payload, err := json.Marshal(DeliverPayload{Request: req})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(constants.TaskTypeNotificationDeliver, payload, asynq.MaxRetry(3)), nil
}

// HandleDeliverTask persists the notification from the queue. Delivery is
// decoupled from the request path so schedule writes never block on it.
func (s *NotificationService) HandleDeliverTask(ctx context.Context, task *asynq.Task) error {
	var payload DeliverPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Error("NotificationService:HandleDeliverTask:Unmarshal:Error:", err)
		return err
	}
	if err := s.Create(ctx, &payload.Request); err != nil {
		logger.Error("NotificationService:HandleDeliverTask:Create:Error:", err)
		return err
	}
	return nil
}
