package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/rfpdock/rfpdock/internal/clock"
	companydomain "github.com/rfpdock/rfpdock/internal/company/domain"
	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
	"github.com/rfpdock/rfpdock/internal/joinrequest/domain"
	notificationdomain "github.com/rfpdock/rfpdock/internal/notification/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type service struct {
	log         *zap.Logger
	db          *gorm.DB
	repo        domain.Repository
	companyRepo companydomain.Repository
	userRepo    identitydomain.Repository
	emitter     notificationdomain.Emitter
	genID       *snowflake.Node
	clk         clock.Clock
}

func NewService(
	log *zap.Logger,
	db *gorm.DB,
	repo domain.Repository,
	companyRepo companydomain.Repository,
	userRepo identitydomain.Repository,
	emitter notificationdomain.Emitter,
	genID *snowflake.Node,
	clk clock.Clock,
) domain.Service {
	return &service{
		log:         log,
		db:          db,
		repo:        repo,
		companyRepo: companyRepo,
		userRepo:    userRepo,
		emitter:     emitter,
		genID:       genID,
		clk:         clk,
	}
}

func (s *service) Request(ctx context.Context, principal identitydomain.Principal, req domain.RequestJoin) (*domain.JoinRequestResponse, error) {
	companyID, err := snowflake.ParseString(strings.TrimSpace(req.CompanyID))
	if err != nil {
		return nil, domain.ErrInvalidCompany
	}

	company, err := s.companyRepo.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	member, err := s.companyRepo.ActiveMembership(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	if member != nil {
		if member.Role == companydomain.RolePending {
			return nil, domain.ErrDuplicatePending
		}
		return nil, domain.ErrMembershipExists
	}

	pending, err := s.repo.FindPendingByUser(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, domain.ErrDuplicatePending
	}

	now := s.clk.Now()
	request := domain.JoinRequest{
		ID:        s.genID.Generate(),
		CompanyID: companyID,
		UserID:    principal.ID,
		Message:   strings.TrimSpace(req.Message),
		Status:    domain.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// The provisional membership row reserves the single-membership slot;
		// its PENDING role grants nothing until approval.
		if err := s.companyRepo.WithTx(tx).InsertMembership(ctx, companydomain.Membership{
			ID:        s.genID.Generate(),
			CompanyID: companyID,
			UserID:    principal.ID,
			Role:      companydomain.RolePending,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
		return s.repo.WithTx(tx).Insert(ctx, request)
	})
	if err != nil {
		return nil, err
	}

	s.notifyAdmins(ctx, company, request, principal.Email)

	resp := toResponse(request, principal.Email)
	return &resp, nil
}

func (s *service) ListForCompany(ctx context.Context, principal identitydomain.Principal, companyID string) ([]domain.JoinRequestResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(companyID))
	if err != nil {
		return nil, domain.ErrInvalidCompany
	}

	if err := s.requireCompanyAdmin(ctx, principal, id); err != nil {
		return nil, err
	}

	rows, err := s.repo.ListForCompany(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.JoinRequestResponse, 0, len(rows))
	for _, row := range rows {
		resp = append(resp, toResponse(row.JoinRequest, row.Email))
	}
	return resp, nil
}

func (s *service) Approve(ctx context.Context, principal identitydomain.Principal, requestID string) (*domain.JoinRequestResponse, error) {
	return s.resolve(ctx, principal, requestID, domain.StatusApproved, "")
}

func (s *service) Reject(ctx context.Context, principal identitydomain.Principal, requestID, reason string) (*domain.JoinRequestResponse, error) {
	return s.resolve(ctx, principal, requestID, domain.StatusRejected, strings.TrimSpace(reason))
}

func (s *service) resolve(ctx context.Context, principal identitydomain.Principal, requestID, status, reason string) (*domain.JoinRequestResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(requestID))
	if err != nil {
		return nil, domain.ErrNotFound
	}

	request, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.requireCompanyAdmin(ctx, principal, request.CompanyID); err != nil {
		return nil, err
	}

	now := s.clk.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		won, err := s.repo.WithTx(tx).Resolve(ctx, id, status, principal.ID, now)
		if err != nil {
			return err
		}
		if !won {
			return domain.ErrAlreadyResolved
		}

		companyRepo := s.companyRepo.WithTx(tx)
		if status == domain.StatusApproved {
			promoted, err := companyRepo.PromotePendingMembership(ctx, request.CompanyID, request.UserID, now)
			if err != nil {
				return err
			}
			if !promoted {
				// Provisional row is gone; recreate the membership outright.
				return companyRepo.InsertMembership(ctx, companydomain.Membership{
					ID:        s.genID.Generate(),
					CompanyID: request.CompanyID,
					UserID:    request.UserID,
					Role:      companydomain.RoleMember,
					CreatedAt: now,
					UpdatedAt: now,
				})
			}
			return nil
		}

		_, err = companyRepo.DeleteMembership(ctx, request.CompanyID, request.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	request.Status = status
	request.ReviewedBy = &principal.ID
	request.ResolvedAt = &now

	email := s.notifyRequester(ctx, request, reason)
	resp := toResponse(*request, email)
	return &resp, nil
}

func (s *service) requireCompanyAdmin(ctx context.Context, principal identitydomain.Principal, companyID snowflake.ID) error {
	if principal.IsAdmin() {
		return nil
	}
	member, err := s.companyRepo.ActiveMembership(ctx, principal.ID)
	if err != nil {
		return err
	}
	if member == nil || member.CompanyID != companyID || member.Role != companydomain.RoleAdmin {
		return domain.ErrForbidden
	}
	return nil
}

func (s *service) notifyAdmins(ctx context.Context, company *companydomain.Company, request domain.JoinRequest, requesterEmail string) {
	members, err := s.companyRepo.ListMembers(ctx, company.ID)
	if err != nil {
		s.log.Warn("join request admin fan-out skipped",
			zap.Int64("company_id", int64(company.ID)),
			zap.Error(err))
		return
	}

	for _, member := range members {
		if member.Role != companydomain.RoleAdmin {
			continue
		}
		s.emitter.Emit(ctx, notificationdomain.Event{
			Type:            notificationdomain.EventJoinRequestSubmitted,
			RecipientUserID: member.UserID,
			RecipientEmail:  member.Email,
			Subject:         fmt.Sprintf("New request to join %s", company.Name),
			Body: fmt.Sprintf("<p>%s asked to join <strong>%s</strong>.</p>",
				requesterEmail, company.Name),
			Payload: map[string]any{
				"request_id": request.ID.String(),
				"company_id": company.ID.String(),
				"user_id":    request.UserID.String(),
			},
		})
	}
}

func (s *service) notifyRequester(ctx context.Context, request *domain.JoinRequest, reason string) string {
	user, err := s.userRepo.FindByID(ctx, request.UserID)
	if err != nil {
		s.log.Warn("join request requester lookup failed",
			zap.Int64("request_id", int64(request.ID)),
			zap.Error(err))
		return ""
	}

	eventType := notificationdomain.EventJoinRequestApproved
	subject := "Your join request was approved"
	body := "<p>Your request to join was approved. Welcome aboard.</p>"
	if request.Status == domain.StatusRejected {
		eventType = notificationdomain.EventJoinRequestRejected
		subject = "Your join request was declined"
		body = "<p>Your request to join was declined by a company admin.</p>"
		if reason != "" {
			body = fmt.Sprintf("<p>Your request to join was declined by a company admin: %s</p>", reason)
		}
	}

	payload := map[string]any{
		"request_id": request.ID.String(),
		"company_id": request.CompanyID.String(),
		"status":     request.Status,
	}
	if reason != "" {
		payload["reason"] = reason
	}

	s.emitter.Emit(ctx, notificationdomain.Event{
		Type:            eventType,
		RecipientUserID: user.ID,
		RecipientEmail:  user.Email,
		Subject:         subject,
		Body:            body,
		Payload:         payload,
	})
	return user.Email
}

func toResponse(request domain.JoinRequest, email string) domain.JoinRequestResponse {
	return domain.JoinRequestResponse{
		ID:         request.ID.String(),
		CompanyID:  request.CompanyID.String(),
		UserID:     request.UserID.String(),
		Email:      email,
		Message:    request.Message,
		Status:     request.Status,
		ResolvedAt: request.ResolvedAt,
		CreatedAt:  request.CreatedAt,
	}
}
