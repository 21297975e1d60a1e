package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rfpdock/rfpdock/internal/clock"
	companydomain "github.com/rfpdock/rfpdock/internal/company/domain"
	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
	notificationdomain "github.com/rfpdock/rfpdock/internal/notification/domain"
	"github.com/rfpdock/rfpdock/internal/rfp/domain"
	"github.com/rfpdock/rfpdock/pkg/db"
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
	gdb *gorm.DB,
	repo domain.Repository,
	companyRepo companydomain.Repository,
	userRepo identitydomain.Repository,
	emitter notificationdomain.Emitter,
	genID *snowflake.Node,
	clk clock.Clock,
) domain.Service {
	return &service{
		log:         log,
		db:          gdb,
		repo:        repo,
		companyRepo: companyRepo,
		userRepo:    userRepo,
		emitter:     emitter,
		genID:       genID,
		clk:         clk,
	}
}

func (s *service) Create(ctx context.Context, principal identitydomain.Principal, req domain.CreateRFPRequest) (*domain.RFPResponse, error) {
	if !principal.IsReviewer() {
		return nil, domain.ErrForbidden
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}

	now := s.clk.Now()
	rfp := domain.RFP{
		ID:          s.genID.Generate(),
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Status:      domain.StatusDraft,
		CreatedBy:   principal.ID,
		ClosesAt:    req.ClosesAt,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertRFP(ctx, rfp); err != nil {
		return nil, err
	}

	resp := toRFPResponse(rfp)
	return &resp, nil
}

func (s *service) Publish(ctx context.Context, principal identitydomain.Principal, rfpID string) (*domain.RFPResponse, error) {
	return s.transition(ctx, principal, rfpID, domain.StatusDraft, domain.StatusPublished)
}

func (s *service) Close(ctx context.Context, principal identitydomain.Principal, rfpID string) (*domain.RFPResponse, error) {
	return s.transition(ctx, principal, rfpID, domain.StatusPublished, domain.StatusClosed)
}

func (s *service) transition(ctx context.Context, principal identitydomain.Principal, rfpID, from, to string) (*domain.RFPResponse, error) {
	if !principal.IsReviewer() {
		return nil, domain.ErrForbidden
	}

	id, err := parseID(rfpID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	now := s.clk.Now()
	var publishedAt *time.Time
	if to == domain.StatusPublished {
		publishedAt = &now
	}

	moved, err := s.repo.TransitionRFP(ctx, id, from, to, publishedAt, now)
	if err != nil {
		return nil, err
	}
	if !moved {
		if _, err := s.repo.GetRFP(ctx, id); err != nil {
			return nil, err
		}
		return nil, domain.ErrInvalidState
	}

	rfp, err := s.repo.GetRFP(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toRFPResponse(*rfp)
	return &resp, nil
}

func (s *service) Get(ctx context.Context, principal identitydomain.Principal, rfpID string) (*domain.RFPResponse, error) {
	id, err := parseID(rfpID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	rfp, err := s.repo.GetRFP(ctx, id)
	if err != nil {
		return nil, err
	}
	// Drafts are only visible to the reviewing side.
	if rfp.Status == domain.StatusDraft && !principal.IsReviewer() {
		return nil, domain.ErrNotFound
	}

	resp := toRFPResponse(*rfp)
	return &resp, nil
}

func (s *service) List(ctx context.Context, principal identitydomain.Principal) ([]domain.RFPResponse, error) {
	var statuses []string
	if !principal.IsReviewer() {
		statuses = []string{domain.StatusPublished, domain.StatusClosed}
	}

	rfps, err := s.repo.ListRFPs(ctx, statuses)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.RFPResponse, 0, len(rfps))
	for _, rfp := range rfps {
		resp = append(resp, toRFPResponse(rfp))
	}
	return resp, nil
}

func (s *service) Register(ctx context.Context, principal identitydomain.Principal, rfpID string) (*domain.RegistrationResponse, error) {
	id, err := parseID(rfpID)
	if err != nil {
		return nil, domain.ErrNotFound
	}

	rfp, err := s.repo.GetRFP(ctx, id)
	if err != nil {
		return nil, err
	}
	if rfp.Status != domain.StatusPublished {
		return nil, domain.ErrNotPublished
	}
	now := s.clk.Now()
	if rfp.ClosesAt != nil && now.After(*rfp.ClosesAt) {
		return nil, domain.ErrNotPublished
	}

	member, err := s.companyRepo.ActiveMembership(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	if member == nil || member.Role == companydomain.RolePending {
		return nil, domain.ErrNoCompany
	}

	existing, err := s.repo.GetRegistration(ctx, id, member.CompanyID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateRegistration
	}

	registration := domain.CompanyRegistration{
		ID:          s.genID.Generate(),
		RFPID:       id,
		CompanyID:   member.CompanyID,
		Status:      domain.RegistrationPending,
		RequestedBy: principal.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertRegistration(ctx, registration); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateRegistration
		}
		return nil, err
	}

	resp := toRegistrationResponse(registration)
	return &resp, nil
}

func (s *service) ReviewRegistration(ctx context.Context, principal identitydomain.Principal, registrationID string, approve bool) (*domain.RegistrationResponse, error) {
	if !principal.IsReviewer() {
		return nil, domain.ErrForbidden
	}

	id, err := parseID(registrationID)
	if err != nil {
		return nil, domain.ErrRegistrationNotFound
	}

	registration, err := s.repo.GetRegistrationByID(ctx, id)
	if err != nil {
		return nil, err
	}

	status := domain.RegistrationApproved
	if !approve {
		status = domain.RegistrationRejected
	}

	now := s.clk.Now()
	won, err := s.repo.ResolveRegistration(ctx, id, status, principal.ID, now)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, domain.ErrAlreadyResolved
	}

	registration.Status = status
	registration.ReviewedBy = &principal.ID
	registration.ResolvedAt = &now

	s.notifyRequester(ctx, registration)

	resp := toRegistrationResponse(*registration)
	return &resp, nil
}

func (s *service) ListRegistrations(ctx context.Context, principal identitydomain.Principal, rfpID string) ([]domain.RegistrationResponse, error) {
	if !principal.IsReviewer() {
		return nil, domain.ErrForbidden
	}

	id, err := parseID(rfpID)
	if err != nil {
		return nil, domain.ErrNotFound
	}
	if _, err := s.repo.GetRFP(ctx, id); err != nil {
		return nil, err
	}

	registrations, err := s.repo.ListRegistrations(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.RegistrationResponse, 0, len(registrations))
	for _, registration := range registrations {
		resp = append(resp, toRegistrationResponse(registration))
	}
	return resp, nil
}

func (s *service) notifyRequester(ctx context.Context, registration *domain.CompanyRegistration) {
	user, err := s.userRepo.FindByID(ctx, registration.RequestedBy)
	if err != nil {
		s.log.Warn("registration requester lookup failed",
			zap.Int64("registration_id", int64(registration.ID)),
			zap.Error(err))
		return
	}

	eventType := notificationdomain.EventRegistrationApproved
	subject := "Your RFP registration was approved"
	body := "<p>Your company's registration was approved. You can now access bid materials, subject to NDA requirements.</p>"
	if registration.Status == domain.RegistrationRejected {
		eventType = notificationdomain.EventRegistrationRejected
		subject = "Your RFP registration was declined"
		body = "<p>Your company's registration was declined by the reviewing team.</p>"
	}

	s.emitter.Emit(ctx, notificationdomain.Event{
		Type:            eventType,
		RecipientUserID: user.ID,
		RecipientEmail:  user.Email,
		Subject:         subject,
		Body:            body,
		Payload: map[string]any{
			"registration_id": registration.ID.String(),
			"rfp_id":          registration.RFPID.String(),
			"company_id":      registration.CompanyID.String(),
			"status":          registration.Status,
		},
	})
}

func parseID(raw string) (snowflake.ID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, fmt.Errorf("empty id")
	}
	return snowflake.ParseString(trimmed)
}

func toRFPResponse(rfp domain.RFP) domain.RFPResponse {
	return domain.RFPResponse{
		ID:          rfp.ID.String(),
		Title:       rfp.Title,
		Description: rfp.Description,
		Status:      rfp.Status,
		PublishedAt: rfp.PublishedAt,
		ClosesAt:    rfp.ClosesAt,
		CreatedAt:   rfp.CreatedAt,
	}
}

func toRegistrationResponse(registration domain.CompanyRegistration) domain.RegistrationResponse {
	return domain.RegistrationResponse{
		ID:         registration.ID.String(),
		RFPID:      registration.RFPID.String(),
		CompanyID:  registration.CompanyID.String(),
		Status:     registration.Status,
		ResolvedAt: registration.ResolvedAt,
		CreatedAt:  registration.CreatedAt,
	}
}
