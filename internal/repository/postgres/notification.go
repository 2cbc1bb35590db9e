package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/fisiocare/booking-api/internal/model"
	apperrors "github.com/fisiocare/booking-api/pkg/errors"
)

func (r *notificationRepository) Create(ctx context.Context, notification *model.Notification) error {
	query := `
		INSERT INTO notifications (
			id, user_id, title, message, kind,
			read, externally_delivered, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		notification.ID,
		notification.UserID,
		notification.Title,
		notification.Message,
		notification.Kind,
		notification.Read,
		notification.ExternallyDelivered,
		notification.CreatedAt,
	)
	if err != nil {
		return apperrors.Persistence("failed to create notification", err)
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	query := `
		SELECT id, user_id, title, message, kind,
			   read, externally_delivered, created_at
		FROM notifications
		WHERE user_id = $1
		ORDER BY created_at DESC
	`
	var notifications []*model.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, apperrors.Persistence("failed to list notifications", err)
	}
	return notifications, nil
}

// MarkAsRead filters on both ids so a mismatched user id behaves exactly like
// a missing notification.
func (r *notificationRepository) MarkAsRead(ctx context.Context, id, userID uuid.UUID) (bool, error) {
	query := `
		UPDATE notifications
		SET read = TRUE
		WHERE id = $1 AND user_id = $2
	`
	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return false, apperrors.Persistence("failed to mark notification as read", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, apperrors.Persistence("failed to get rows affected", err)
	}
	return rows > 0, nil
}

func (r *notificationRepository) MarkExternallyDelivered(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE notifications
		SET externally_delivered = TRUE
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return apperrors.Persistence("failed to mark notification as delivered", err)
	}
	return nil
}
