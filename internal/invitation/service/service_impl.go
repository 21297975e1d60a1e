package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rfpdock/rfpdock/internal/clock"
	companydomain "github.com/rfpdock/rfpdock/internal/company/domain"
	"github.com/rfpdock/rfpdock/internal/config"
	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
	"github.com/rfpdock/rfpdock/internal/invitation/domain"
	notificationdomain "github.com/rfpdock/rfpdock/internal/notification/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tokenBytes = 32

type service struct {
	log         *zap.Logger
	db          *gorm.DB
	repo        domain.Repository
	companyRepo companydomain.Repository
	emitter     notificationdomain.Emitter
	genID       *snowflake.Node
	clk         clock.Clock
	portal      *config.PortalConfigHolder
}

func NewService(
	log *zap.Logger,
	db *gorm.DB,
	repo domain.Repository,
	companyRepo companydomain.Repository,
	emitter notificationdomain.Emitter,
	genID *snowflake.Node,
	clk clock.Clock,
	portal *config.PortalConfigHolder,
) domain.Service {
	return &service{
		log:         log,
		db:          db,
		repo:        repo,
		companyRepo: companyRepo,
		emitter:     emitter,
		genID:       genID,
		clk:         clk,
		portal:      portal,
	}
}

func (s *service) Issue(ctx context.Context, principal identitydomain.Principal, req domain.IssueRequest) (*domain.IssueResponse, error) {
	companyID, err := snowflake.ParseString(strings.TrimSpace(req.CompanyID))
	if err != nil {
		return nil, domain.ErrNotFound
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}

	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role == "" {
		role = companydomain.RoleMember
	}
	if role != companydomain.RoleMember && role != companydomain.RoleAdmin {
		return nil, domain.ErrInvalidRole
	}

	if err := s.requireCompanyAdmin(ctx, principal, companyID); err != nil {
		return nil, err
	}

	company, err := s.companyRepo.GetCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	existing, err := s.repo.FindPending(ctx, companyID, email, now)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicatePending
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(s.portal.Get().InvitationTTLDays) * 24 * time.Hour
	invitation := domain.Invitation{
		ID:        s.genID.Generate(),
		CompanyID: companyID,
		Email:     email,
		Role:      role,
		Token:     token,
		Status:    domain.StatusPending,
		InvitedBy: principal.ID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, invitation); err != nil {
		return nil, err
	}

	s.emitter.Emit(ctx, notificationdomain.Event{
		Type:           notificationdomain.EventInvitationIssued,
		RecipientEmail: email,
		Subject:        fmt.Sprintf("You're invited to join %s", company.Name),
		Body: fmt.Sprintf("<p>%s invited you to join <strong>%s</strong>. The invitation expires on %s.</p>",
			principal.Email, company.Name, invitation.ExpiresAt.Format("Jan 2, 2006")),
		Payload: map[string]any{
			"invitation_id": invitation.ID.String(),
			"company_id":    companyID.String(),
			"role":          role,
		},
	})

	return &domain.IssueResponse{
		Invitation: toResponse(invitation),
		Token:      token,
	}, nil
}

func (s *service) Redeem(ctx context.Context, principal identitydomain.Principal, token string) (*domain.InvitationResponse, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrNotFound
	}

	invitation, err := s.repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	now := s.clk.Now()
	principalEmail := strings.ToLower(strings.TrimSpace(principal.Email))

	switch invitation.Status {
	case domain.StatusAccepted:
		if strings.EqualFold(invitation.Email, principalEmail) {
			resp := toResponse(*invitation)
			return &resp, nil
		}
		return nil, domain.ErrAlreadyAccepted
	case domain.StatusExpired:
		return nil, domain.ErrExpired
	case domain.StatusRejected:
		// Revoked invitations are indistinguishable from unknown tokens.
		return nil, domain.ErrNotFound
	}

	// The expiry instant itself is already expired, matching the sweep.
	if !now.Before(invitation.ExpiresAt) {
		if _, err := s.repo.MarkExpired(ctx, invitation.ID, now); err != nil {
			return nil, err
		}
		return nil, domain.ErrExpired
	}

	if !strings.EqualFold(invitation.Email, principalEmail) {
		return nil, domain.ErrEmailMismatch
	}

	member, err := s.companyRepo.ActiveMembership(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	if member != nil && member.Role != companydomain.RolePending {
		if member.CompanyID == invitation.CompanyID {
			// Already in; accept the invitation so it stops showing pending.
			if _, err := s.repo.MarkAccepted(ctx, invitation.ID, now); err != nil {
				return nil, err
			}
			accepted := *invitation
			accepted.Status = domain.StatusAccepted
			accepted.ResolvedAt = &now
			resp := toResponse(accepted)
			return &resp, nil
		}
		return nil, companydomain.ErrMembershipExists
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		won, err := repo.MarkAccepted(ctx, invitation.ID, now)
		if err != nil {
			return err
		}
		if !won {
			return domain.ErrAlreadyResolved
		}

		// An invitation beats an in-flight join request: the provisional
		// membership is overwritten, not merged.
		if err := s.companyRepo.WithTx(tx).ReplaceMembership(ctx, companydomain.Membership{
			ID:        s.genID.Generate(),
			CompanyID: invitation.CompanyID,
			UserID:    principal.ID,
			Role:      invitation.Role,
			CreatedAt: now,
			UpdatedAt: now,
		}); err != nil {
			return err
		}
		return repo.SupersedePendingJoinRequests(ctx, principal.ID, now)
	})
	if err != nil {
		return nil, err
	}

	invitation.Status = domain.StatusAccepted
	invitation.ResolvedAt = &now
	resp := toResponse(*invitation)
	return &resp, nil
}

func (s *service) ListByCompany(ctx context.Context, principal identitydomain.Principal, companyID string) ([]domain.InvitationResponse, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(companyID))
	if err != nil {
		return nil, domain.ErrNotFound
	}

	if err := s.requireCompanyAdmin(ctx, principal, id); err != nil {
		return nil, err
	}

	if err := s.repo.ExpireDue(ctx, id, s.clk.Now()); err != nil {
		return nil, err
	}

	invitations, err := s.repo.ListByCompany(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.InvitationResponse, 0, len(invitations))
	for _, invitation := range invitations {
		resp = append(resp, toResponse(invitation))
	}
	return resp, nil
}

func (s *service) Revoke(ctx context.Context, principal identitydomain.Principal, invitationID string) error {
	id, err := snowflake.ParseString(strings.TrimSpace(invitationID))
	if err != nil {
		return domain.ErrNotFound
	}

	invitation, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.requireCompanyAdmin(ctx, principal, invitation.CompanyID); err != nil {
		return err
	}

	revoked, err := s.repo.MarkRejected(ctx, id, s.clk.Now())
	if err != nil {
		return err
	}
	if !revoked {
		return domain.ErrAlreadyResolved
	}
	return nil
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

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(raw))
	if err != nil {
		return "", err
	}
	return strings.ToLower(addr.Address), nil
}

func toResponse(invitation domain.Invitation) domain.InvitationResponse {
	return domain.InvitationResponse{
		ID:         invitation.ID.String(),
		CompanyID:  invitation.CompanyID.String(),
		Email:      invitation.Email,
		Role:       invitation.Role,
		Status:     invitation.Status,
		ExpiresAt:  invitation.ExpiresAt,
		ResolvedAt: invitation.ResolvedAt,
		CreatedAt:  invitation.CreatedAt,
	}
}
