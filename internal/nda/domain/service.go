package domain

import (
	"context"
	"errors"
	"time"

	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
)

type Service interface {
	// SignIndividual records the caller's personal NDA for the RFP along with
	// what they attested to. Signing again refreshes signed_at and the stored
	// payload; after a rejection it also resets the record to SIGNED.
	SignIndividual(ctx context.Context, principal identitydomain.Principal, rfpID string, signaturePayload map[string]any) (*NDAResponse, error)
	// SignCompany records an NDA on behalf of the caller's company; only a
	// company admin may sign for the company.
	SignCompany(ctx context.Context, principal identitydomain.Principal, rfpID string) (*NDAResponse, error)
	// Countersign approves or rejects a signed NDA. Rejection requires a
	// reason the signer will see.
	Countersign(ctx context.Context, principal identitydomain.Principal, req CountersignRequest) (*NDAResponse, error)
	ListForRFP(ctx context.Context, principal identitydomain.Principal, rfpID string) ([]NDAResponse, error)
}

type CountersignRequest struct {
	NDAID   string
	Approve bool
	Reason  string
}

type NDAResponse struct {
	ID               string         `json:"id"`
	RFPID            string         `json:"rfp_id"`
	Scope            string         `json:"scope"`
	UserID           string         `json:"user_id,omitempty"`
	CompanyID        string         `json:"company_id,omitempty"`
	Status           string         `json:"status"`
	SignedAt         time.Time      `json:"signed_at"`
	SignaturePayload map[string]any `json:"signature_payload,omitempty"`
	CountersignedAt  *time.Time     `json:"countersigned_at,omitempty"`
	RejectReason     string         `json:"reject_reason,omitempty"`
}

var (
	ErrNotFound       = errors.New("nda record not found")
	ErrAlreadySigned  = errors.New("nda already signed")
	ErrNotCounterable = errors.New("nda not awaiting countersignature")
	ErrReasonRequired = errors.New("rejection reason required")
	ErrNoCompany      = errors.New("caller has no active company")
	ErrForbidden      = errors.New("forbidden")
)
