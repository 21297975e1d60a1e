package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Insert(ctx context.Context, notification Notification) error
	ListForUser(ctx context.Context, userID snowflake.ID, limit int) ([]Notification, error)
	// MarkRead sets read_at on an unread row owned by the user; returns false
	// when no such row matched.
	MarkRead(ctx context.Context, userID, notificationID snowflake.ID, now time.Time) (bool, error)
}
