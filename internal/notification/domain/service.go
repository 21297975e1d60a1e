package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
)

// Event is a workflow occurrence fanned out to the recipient's in-app feed
// and, when an address is known, to email. Delivery is best effort: emitters
// never propagate failures back into the workflow that produced the event.
type Event struct {
	Type            string
	RecipientUserID snowflake.ID
	RecipientEmail  string
	Subject         string
	Body            string
	Payload         map[string]any
}

type Emitter interface {
	Emit(ctx context.Context, event Event)
}

type Service interface {
	ListForUser(ctx context.Context, principal identitydomain.Principal) ([]NotificationResponse, error)
	MarkRead(ctx context.Context, principal identitydomain.Principal, notificationID string) error
}

type NotificationResponse struct {
	ID        string         `json:"id"`
	EventType string         `json:"event_type"`
	Payload   map[string]any `json:"payload"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

var (
	ErrNotFound  = errors.New("notification not found")
	ErrInvalidID = errors.New("invalid notification id")
)
