package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rfpdock/rfpdock/internal/notification/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) Insert(ctx context.Context, notification domain.Notification) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO notifications (id, user_id, email, event_type, payload, read_at, created_at)
		 VALUES (?, ?, ?, ?, ?, NULL, ?)`,
		notification.ID,
		notification.UserID,
		notification.Email,
		notification.EventType,
		notification.Payload,
		notification.CreatedAt,
	).Error
}

func (r *repository) ListForUser(ctx context.Context, userID snowflake.ID, limit int) ([]domain.Notification, error) {
	var rows []domain.Notification
	err := r.db.WithContext(ctx).Raw(
		`SELECT * FROM notifications
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT ?`,
		userID,
		limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) MarkRead(ctx context.Context, userID, notificationID snowflake.ID, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE notifications SET read_at = ?
		 WHERE id = ? AND user_id = ? AND read_at IS NULL`,
		now,
		notificationID,
		userID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
