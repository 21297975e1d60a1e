package domain

import (
	"context"
	"errors"
	"time"

	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
)

type Service interface {
	Create(ctx context.Context, principal identitydomain.Principal, req CreateDocumentRequest) (*DocumentResponse, error)
	Get(ctx context.Context, principal identitydomain.Principal, documentID string) (*DocumentResponse, error)
	ListForRFP(ctx context.Context, principal identitydomain.Principal, rfpID string) ([]DocumentResponse, error)
	// DownloadURL runs the entitlement gates and, when access is granted,
	// returns a short-lived presigned link to the underlying object.
	DownloadURL(ctx context.Context, principal identitydomain.Principal, documentID string) (*DownloadResponse, error)
}

type CreateDocumentRequest struct {
	RFPID            string
	Title            string
	FilePath         string
	ContentType      string
	SizeBytes        int64
	RequiresNDA      bool
	RequiresApproval bool
}

type DocumentResponse struct {
	ID               string    `json:"id"`
	RFPID            string    `json:"rfp_id"`
	Title            string    `json:"title"`
	ContentType      string    `json:"content_type"`
	SizeBytes        int64     `json:"size_bytes"`
	RequiresNDA      bool      `json:"requires_nda"`
	RequiresApproval bool      `json:"requires_approval"`
	CreatedAt        time.Time `json:"created_at"`
}

type DownloadResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

var (
	ErrNotFound         = errors.New("document not found")
	ErrInvalidTitle     = errors.New("invalid_title")
	ErrInvalidFile      = errors.New("invalid_file")
	ErrApprovalRequired = errors.New("company registration approval required")
	ErrNDARequired      = errors.New("nda required")
	ErrForbidden        = errors.New("forbidden")
)
