package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/rfpdock/rfpdock/internal/clock"
	"github.com/rfpdock/rfpdock/internal/document/domain"
	entitlementdomain "github.com/rfpdock/rfpdock/internal/entitlement/domain"
	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
	"github.com/rfpdock/rfpdock/internal/providers/blob"
	rfpdomain "github.com/rfpdock/rfpdock/internal/rfp/domain"
)

// downloadTTL is how long a presigned link stays valid.
const downloadTTL = 15 * time.Minute

type service struct {
	repo     domain.Repository
	rfpRepo  rfpdomain.Repository
	resolver entitlementdomain.Resolver
	storage  blob.Storage
	genID    *snowflake.Node
	clk      clock.Clock
}

func NewService(
	repo domain.Repository,
	rfpRepo rfpdomain.Repository,
	resolver entitlementdomain.Resolver,
	storage blob.Storage,
	genID *snowflake.Node,
	clk clock.Clock,
) domain.Service {
	return &service{
		repo:     repo,
		rfpRepo:  rfpRepo,
		resolver: resolver,
		storage:  storage,
		genID:    genID,
		clk:      clk,
	}
}

func (s *service) Create(ctx context.Context, principal identitydomain.Principal, req domain.CreateDocumentRequest) (*domain.DocumentResponse, error) {
	if !principal.IsReviewer() {
		return nil, domain.ErrForbidden
	}

	rfpID, err := snowflake.ParseString(strings.TrimSpace(req.RFPID))
	if err != nil {
		return nil, rfpdomain.ErrNotFound
	}
	if _, err := s.rfpRepo.GetRFP(ctx, rfpID); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	filePath := strings.TrimSpace(req.FilePath)
	if filePath == "" {
		return nil, domain.ErrInvalidFile
	}

	now := s.clk.Now()
	document := domain.Document{
		ID:               s.genID.Generate(),
		RFPID:            rfpID,
		Title:            title,
		FilePath:         filePath,
		ContentType:      strings.TrimSpace(req.ContentType),
		SizeBytes:        req.SizeBytes,
		RequiresNDA:      req.RequiresNDA,
		RequiresApproval: req.RequiresApproval,
		UploadedBy:       principal.ID,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := s.repo.Insert(ctx, document); err != nil {
		return nil, err
	}

	resp := toResponse(document)
	return &resp, nil
}

func (s *service) Get(ctx context.Context, principal identitydomain.Principal, documentID string) (*domain.DocumentResponse, error) {
	document, err := s.visibleDocument(ctx, principal, documentID)
	if err != nil {
		return nil, err
	}
	resp := toResponse(*document)
	return &resp, nil
}

func (s *service) ListForRFP(ctx context.Context, principal identitydomain.Principal, rfpID string) ([]domain.DocumentResponse, error) {
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

	documents, err := s.repo.ListByRFP(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.DocumentResponse, 0, len(documents))
	for _, document := range documents {
		resp = append(resp, toResponse(document))
	}
	return resp, nil
}

func (s *service) DownloadURL(ctx context.Context, principal identitydomain.Principal, documentID string) (*domain.DownloadResponse, error) {
	document, err := s.visibleDocument(ctx, principal, documentID)
	if err != nil {
		return nil, err
	}

	decision, err := s.resolver.CanAccess(ctx, principal, *document)
	if err != nil {
		return nil, err
	}
	if !decision.Allowed {
		switch decision.Reason {
		case entitlementdomain.ReasonNDARequired:
			return nil, domain.ErrNDARequired
		default:
			return nil, domain.ErrApprovalRequired
		}
	}

	url, err := s.storage.PresignedGet(ctx, document.FilePath, downloadTTL)
	if err != nil {
		return nil, err
	}

	return &domain.DownloadResponse{
		URL:       url,
		ExpiresAt: s.clk.Now().Add(downloadTTL),
	}, nil
}

// visibleDocument loads a document and hides it entirely when its RFP is
// still a draft. Metadata visibility is broader than download rights.
func (s *service) visibleDocument(ctx context.Context, principal identitydomain.Principal, documentID string) (*domain.Document, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(documentID))
	if err != nil {
		return nil, domain.ErrNotFound
	}

	document, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	rfp, err := s.rfpRepo.GetRFP(ctx, document.RFPID)
	if err != nil {
		return nil, err
	}
	if rfp.Status == rfpdomain.StatusDraft && !principal.IsReviewer() {
		return nil, domain.ErrNotFound
	}
	return document, nil
}

func toResponse(document domain.Document) domain.DocumentResponse {
	return domain.DocumentResponse{
		ID:               document.ID.String(),
		RFPID:            document.RFPID.String(),
		Title:            document.Title,
		ContentType:      document.ContentType,
		SizeBytes:        document.SizeBytes,
		RequiresNDA:      document.RequiresNDA,
		RequiresApproval: document.RequiresApproval,
		CreatedAt:        document.CreatedAt,
	}
}
