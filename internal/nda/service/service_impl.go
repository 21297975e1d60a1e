package service

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/rfpdock/rfpdock/internal/clock"
	companydomain "github.com/rfpdock/rfpdock/internal/company/domain"
	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
	"github.com/rfpdock/rfpdock/internal/nda/domain"
	notificationdomain "github.com/rfpdock/rfpdock/internal/notification/domain"
	rfpdomain "github.com/rfpdock/rfpdock/internal/rfp/domain"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type service struct {
	log         *zap.Logger
	repo        domain.Repository
	rfpRepo     rfpdomain.Repository
	companyRepo companydomain.Repository
	userRepo    identitydomain.Repository
	emitter     notificationdomain.Emitter
	genID       *snowflake.Node
	clk         clock.Clock
}

func NewService(
	log *zap.Logger,
	repo domain.Repository,
	rfpRepo rfpdomain.Repository,
	companyRepo companydomain.Repository,
	userRepo identitydomain.Repository,
	emitter notificationdomain.Emitter,
	genID *snowflake.Node,
	clk clock.Clock,
) domain.Service {
	return &service{
		log:         log,
		repo:        repo,
		rfpRepo:     rfpRepo,
		companyRepo: companyRepo,
		userRepo:    userRepo,
		emitter:     emitter,
		genID:       genID,
		clk:         clk,
	}
}

func (s *service) SignIndividual(ctx context.Context, principal identitydomain.Principal, rfpID string, signaturePayload map[string]any) (*domain.NDAResponse, error) {
	rfp, err := s.visibleRFP(ctx, principal, rfpID)
	if err != nil {
		return nil, err
	}

	payload, err := marshalPayload(signaturePayload)
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.FindIndividual(ctx, rfp.ID, principal.ID)
	if err != nil {
		return nil, err
	}
	record, err := s.upsert(ctx, existing, domain.NDARecord{
		RFPID:            rfp.ID,
		Scope:            domain.ScopeIndividual,
		UserID:           principal.ID,
		SignaturePayload: payload,
	}, principal.ID)
	if err != nil {
		return nil, err
	}

	resp := toResponse(*record)
	return &resp, nil
}

func (s *service) SignCompany(ctx context.Context, principal identitydomain.Principal, rfpID string) (*domain.NDAResponse, error) {
	rfp, err := s.visibleRFP(ctx, principal, rfpID)
	if err != nil {
		return nil, err
	}

	member, err := s.companyRepo.ActiveMembership(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	if member == nil || member.Role == companydomain.RolePending {
		return nil, domain.ErrNoCompany
	}
	if member.Role != companydomain.RoleAdmin {
		return nil, domain.ErrForbidden
	}

	existing, err := s.repo.FindCompany(ctx, rfp.ID, member.CompanyID)
	if err != nil {
		return nil, err
	}
	record, err := s.upsert(ctx, existing, domain.NDARecord{
		RFPID:            rfp.ID,
		Scope:            domain.ScopeCompany,
		CompanyID:        member.CompanyID,
		SignaturePayload: datatypes.JSON("{}"),
	}, principal.ID)
	if err != nil {
		return nil, err
	}

	s.notifyOwner(ctx, rfp, notificationdomain.Event{
		Type:    notificationdomain.EventCompanyNDASigned,
		Subject: "Company NDA awaiting countersignature",
		Body:    "<p>A bidding company signed the NDA for <strong>" + rfp.Title + "</strong> and is waiting for approval.</p>",
		Payload: map[string]any{
			"nda_id":     record.ID.String(),
			"rfp_id":     rfp.ID.String(),
			"company_id": member.CompanyID.String(),
		},
	})

	resp := toResponse(*record)
	return &resp, nil
}

// upsert inserts a fresh SIGNED record, or re-signs an existing one in place:
// signed_at and the payload are refreshed on every re-sign, and a resolved
// record goes back to SIGNED with its countersignature cleared.
func (s *service) upsert(ctx context.Context, existing *domain.NDARecord, template domain.NDARecord, signer snowflake.ID) (*domain.NDARecord, error) {
	now := s.clk.Now()

	if existing == nil {
		record := template
		record.ID = s.genID.Generate()
		record.Status = domain.StatusSigned
		record.SignedBy = signer
		record.SignedAt = now
		record.CreatedAt = now
		record.UpdatedAt = now
		if err := s.repo.Insert(ctx, record); err != nil {
			return nil, err
		}
		return &record, nil
	}

	if err := s.repo.ResetToSigned(ctx, existing.ID, signer, template.SignaturePayload, now); err != nil {
		return nil, err
	}
	existing.Status = domain.StatusSigned
	existing.SignedBy = signer
	existing.SignedAt = now
	existing.SignaturePayload = template.SignaturePayload
	existing.CountersignedBy = nil
	existing.CountersignedAt = nil
	existing.RejectReason = ""
	return existing, nil
}

func (s *service) Countersign(ctx context.Context, principal identitydomain.Principal, req domain.CountersignRequest) (*domain.NDAResponse, error) {
	if !principal.IsReviewer() {
		return nil, domain.ErrForbidden
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.NDAID))
	if err != nil {
		return nil, domain.ErrNotFound
	}

	reason := strings.TrimSpace(req.Reason)
	if !req.Approve && reason == "" {
		return nil, domain.ErrReasonRequired
	}
	if req.Approve {
		reason = ""
	}

	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	status := domain.StatusApproved
	if !req.Approve {
		status = domain.StatusRejected
	}

	now := s.clk.Now()
	won, err := s.repo.Countersign(ctx, id, status, principal.ID, reason, now)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, domain.ErrNotCounterable
	}

	record.Status = status
	record.CountersignedBy = &principal.ID
	record.CountersignedAt = &now
	record.RejectReason = reason

	s.notifySigner(ctx, record)

	resp := toResponse(*record)
	return &resp, nil
}

func (s *service) ListForRFP(ctx context.Context, principal identitydomain.Principal, rfpID string) ([]domain.NDAResponse, error) {
	rfp, err := s.visibleRFP(ctx, principal, rfpID)
	if err != nil {
		return nil, err
	}

	records, err := s.repo.ListByRFP(ctx, rfp.ID)
	if err != nil {
		return nil, err
	}

	if !principal.IsReviewer() {
		var companyID snowflake.ID
		member, err := s.companyRepo.ActiveMembership(ctx, principal.ID)
		if err != nil {
			return nil, err
		}
		if member != nil {
			companyID = member.CompanyID
		}

		own := records[:0]
		for _, record := range records {
			if record.Scope == domain.ScopeIndividual && record.UserID == principal.ID {
				own = append(own, record)
			}
			if record.Scope == domain.ScopeCompany && companyID != 0 && record.CompanyID == companyID {
				own = append(own, record)
			}
		}
		records = own
	}

	resp := make([]domain.NDAResponse, 0, len(records))
	for _, record := range records {
		resp = append(resp, toResponse(record))
	}
	return resp, nil
}

func (s *service) visibleRFP(ctx context.Context, principal identitydomain.Principal, rfpID string) (*rfpdomain.RFP, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(rfpID))
	if err != nil {
		return nil, rfpdomain.ErrNotFound
	}
	rfp, err := s.rfpRepo.GetRFP(ctx, id)
	if err != nil {
		return nil, err
	}
	if rfp.Status == rfpdomain.StatusDraft && !principal.IsReviewer() {
		return nil, rfpdomain.ErrNotFound
	}
	return rfp, nil
}

func (s *service) notifyOwner(ctx context.Context, rfp *rfpdomain.RFP, event notificationdomain.Event) {
	owner, err := s.userRepo.FindByID(ctx, rfp.CreatedBy)
	if err != nil {
		s.log.Warn("rfp owner lookup failed",
			zap.Int64("rfp_id", int64(rfp.ID)),
			zap.Error(err))
		return
	}
	event.RecipientUserID = owner.ID
	event.RecipientEmail = owner.Email
	s.emitter.Emit(ctx, event)
}

func (s *service) notifySigner(ctx context.Context, record *domain.NDARecord) {
	signer, err := s.userRepo.FindByID(ctx, record.SignedBy)
	if err != nil {
		s.log.Warn("nda signer lookup failed",
			zap.Int64("nda_id", int64(record.ID)),
			zap.Error(err))
		return
	}

	var eventType, subject, body string
	switch {
	case record.Scope == domain.ScopeCompany && record.Status == domain.StatusApproved:
		eventType = notificationdomain.EventCompanyNDAApproved
		subject = "Company NDA approved"
		body = "<p>Your company's NDA was countersigned and approved.</p>"
	case record.Scope == domain.ScopeCompany:
		eventType = notificationdomain.EventCompanyNDARejected
		subject = "Company NDA rejected"
		body = "<p>Your company's NDA was rejected: " + record.RejectReason + "</p>"
	case record.Status == domain.StatusApproved:
		eventType = notificationdomain.EventNDAApproved
		subject = "NDA approved"
		body = "<p>Your NDA was countersigned and approved.</p>"
	default:
		eventType = notificationdomain.EventNDARejected
		subject = "NDA rejected"
		body = "<p>Your NDA was rejected: " + record.RejectReason + "</p>"
	}

	s.emitter.Emit(ctx, notificationdomain.Event{
		Type:            eventType,
		RecipientUserID: signer.ID,
		RecipientEmail:  signer.Email,
		Subject:         subject,
		Body:            body,
		Payload: map[string]any{
			"nda_id": record.ID.String(),
			"rfp_id": record.RFPID.String(),
			"scope":  record.Scope,
			"status": record.Status,
		},
	})
}

func marshalPayload(payload map[string]any) (datatypes.JSON, error) {
	if len(payload) == 0 {
		return datatypes.JSON("{}"), nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

func toResponse(record domain.NDARecord) domain.NDAResponse {
	resp := domain.NDAResponse{
		ID:              record.ID.String(),
		RFPID:           record.RFPID.String(),
		Scope:           record.Scope,
		Status:          record.Status,
		SignedAt:        record.SignedAt,
		CountersignedAt: record.CountersignedAt,
		RejectReason:    record.RejectReason,
	}
	if len(record.SignaturePayload) > 0 {
		var payload map[string]any
		if err := json.Unmarshal(record.SignaturePayload, &payload); err == nil && len(payload) > 0 {
			resp.SignaturePayload = payload
		}
	}
	if record.UserID != 0 {
		resp.UserID = record.UserID.String()
	}
	if record.CompanyID != 0 {
		resp.CompanyID = record.CompanyID.String()
	}
	return resp
}
