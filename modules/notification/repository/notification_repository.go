package repository

import (
	"context"
	"fmt"
	"time"

	"schedule-board/core/database"
	"schedule-board/core/logger"
	"schedule-board/core/params"
	"schedule-board/modules/notification/entity"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type NotificationRepository struct {
	db database.IDatabase
}

func NewNotificationRepository(db database.IDatabase) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, notification *entity.Notification) error {
	query := `
		INSERT INTO notifications (title, message, kind, data, user_id, is_read, created_at, updated_at)
		VALUES (:title, :message, :kind, :data, :user_id, :is_read, :created_at, :updated_at)
		RETURNING id
	`
	rows, err := r.db.NamedQueryContext(ctx, query, notification)
	if err != nil {
		logger.Error("NotificationRepository:Create:Error:", err)
		return err
	}
	defer rows.Close()

	if rows.Next() {
		return rows.Scan(&notification.ID)
	}
	return nil
}

// List returns a page of the user's notifications, newest first. An empty
// kind matches every kind.
func (r *NotificationRepository) List(ctx context.Context, userID uuid.UUID, kind string, p params.QueryParams) (*entity.PaginatedNotificationEntity, error) {
	where := `WHERE user_id = $1`
	args := []any{userID}
	if kind != "" {
		where += fmt.Sprintf(" AND kind = $%d", len(args)+1)
		args = append(args, kind)
	}

	var totalItems int
	if err := r.db.GetContext(ctx, &totalItems, "SELECT COUNT(*) FROM notifications "+where, args...); err != nil {
		logger.Error("NotificationRepository:List:Count:Error:", err)
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT * FROM notifications %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)+1, len(args)+2)
	args = append(args, p.PageSize, (p.PageNumber-1)*p.PageSize)

	var notifications []entity.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		logger.Error("NotificationRepository:List:Select:Error:", err)
		return nil, err
	}

	return &entity.PaginatedNotificationEntity{
		Items:      notifications,
		TotalItems: totalItems,
		PageNumber: p.PageNumber,
		PageSize:   p.PageSize,
	}, nil
}

// MarkRead flags the given notifications as read; with no ids it flags all of
// the user's notifications.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID uuid.UUID, ids []string) error {
	if len(ids) == 0 {
		if err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = true WHERE user_id = $1`, userID); err != nil {
			logger.Error("NotificationRepository:MarkRead:All:Error:", err)
			return err
		}
		return nil
	}

	query, args, err := sqlx.In(`UPDATE notifications SET is_read = true WHERE user_id = ? AND id IN (?)`, userID, ids)
	if err != nil {
		return err
	}

	query = r.db.SQLx().Rebind(query)
	if err := r.db.ExecContext(ctx, query, args...); err != nil {
		logger.Error("NotificationRepository:MarkRead:Error:", err)
		return err
	}
	return nil
}

// DeleteRead prunes read notifications created before the cutoff.
func (r *NotificationRepository) DeleteRead(ctx context.Context, userID uuid.UUID, before time.Time) error {
	query := `DELETE FROM notifications WHERE user_id = $1 AND is_read = true AND created_at < $2`
	if err := r.db.ExecContext(ctx, query, userID, before); err != nil {
		logger.Error("NotificationRepository:DeleteRead:Error:", err)
		return err
	}
	return nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		logger.Error("NotificationRepository:CountUnread:Error:", err)
		return 0, err
	}
	return count, nil
}
