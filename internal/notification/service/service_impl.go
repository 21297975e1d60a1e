package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/rfpdock/rfpdock/internal/clock"
	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
	"github.com/rfpdock/rfpdock/internal/notification/domain"
	"github.com/rfpdock/rfpdock/internal/providers/email"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const feedLimit = 50

type service struct {
	log   *zap.Logger
	repo  domain.Repository
	mail  email.Provider
	genID *snowflake.Node
	clk   clock.Clock
}

func newService(log *zap.Logger, repo domain.Repository, mail email.Provider, genID *snowflake.Node, clk clock.Clock) *service {
	return &service{
		log:   log,
		repo:  repo,
		mail:  mail,
		genID: genID,
		clk:   clk,
	}
}

func NewService(log *zap.Logger, repo domain.Repository, mail email.Provider, genID *snowflake.Node, clk clock.Clock) domain.Service {
	return newService(log, repo, mail, genID, clk)
}

func NewEmitter(log *zap.Logger, repo domain.Repository, mail email.Provider, genID *snowflake.Node, clk clock.Clock) domain.Emitter {
	return newService(log, repo, mail, genID, clk)
}

// Emit records the event in the recipient's feed and fans it out to email.
// Both legs are best effort: a failed insert or send is logged and dropped,
// never surfaced to the workflow that raised the event.
func (s *service) Emit(ctx context.Context, event domain.Event) {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		s.log.Warn("notification payload not serializable",
			zap.String("event_type", event.Type),
			zap.Error(err))
		payload = []byte("{}")
	}

	if event.RecipientUserID != 0 {
		err := s.repo.Insert(ctx, domain.Notification{
			ID:        s.genID.Generate(),
			UserID:    event.RecipientUserID,
			Email:     event.RecipientEmail,
			EventType: event.Type,
			Payload:   datatypes.JSON(payload),
			CreatedAt: s.clk.Now(),
		})
		if err != nil {
			s.log.Warn("notification insert failed",
				zap.String("event_type", event.Type),
				zap.Int64("user_id", int64(event.RecipientUserID)),
				zap.Error(err))
		}
	}

	to := strings.TrimSpace(event.RecipientEmail)
	if to == "" {
		return
	}

	go func() {
		if err := s.mail.Send(context.Background(), []string{to}, event.Subject, event.Body); err != nil {
			s.log.Warn("notification email send failed",
				zap.String("event_type", event.Type),
				zap.Error(err))
		}
	}()
}

func (s *service) ListForUser(ctx context.Context, principal identitydomain.Principal) ([]domain.NotificationResponse, error) {
	rows, err := s.repo.ListForUser(ctx, principal.ID, feedLimit)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.NotificationResponse, 0, len(rows))
	for _, row := range rows {
		var payload map[string]any
		if len(row.Payload) > 0 {
			if err := json.Unmarshal(row.Payload, &payload); err != nil {
				payload = nil
			}
		}
		resp = append(resp, domain.NotificationResponse{
			ID:        row.ID.String(),
			EventType: row.EventType,
			Payload:   payload,
			ReadAt:    row.ReadAt,
			CreatedAt: row.CreatedAt,
		})
	}
	return resp, nil
}

func (s *service) MarkRead(ctx context.Context, principal identitydomain.Principal, notificationID string) error {
	id, err := snowflake.ParseString(strings.TrimSpace(notificationID))
	if err != nil {
		return domain.ErrInvalidID
	}

	marked, err := s.repo.MarkRead(ctx, principal.ID, id, s.clk.Now())
	if err != nil {
		return err
	}
	if !marked {
		return domain.ErrNotFound
	}
	return nil
}
