package dto

import "github.com/google/uuid"

type CreateNotificationRequest struct {
	UserID  uuid.UUID      `json:"user_id"`
	Title   string         `json:"title"`
	Message string         `json:"message"`
	Kind    string         `json:"kind"`
	Data    map[string]any `json:"data"`
}

type MarkAsReadRequest struct {
	IDs []string `json:"ids"`
}
