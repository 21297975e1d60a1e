package domain

import (
	"context"
	"errors"
	"time"

	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
)

type Service interface {
	// Issue creates a pending invitation and returns the one-time token.
	// The token is never readable again after this call.
	Issue(ctx context.Context, principal identitydomain.Principal, req IssueRequest) (*IssueResponse, error)
	// Redeem accepts an invitation on behalf of the authenticated caller and
	// places them in the company, superseding any pending join request.
	Redeem(ctx context.Context, principal identitydomain.Principal, token string) (*InvitationResponse, error)
	ListByCompany(ctx context.Context, principal identitydomain.Principal, companyID string) ([]InvitationResponse, error)
	Revoke(ctx context.Context, principal identitydomain.Principal, invitationID string) error
}

type IssueRequest struct {
	CompanyID string
	Email     string
	Role      string
}

type IssueResponse struct {
	Invitation InvitationResponse `json:"invitation"`
	Token      string             `json:"token"`
}

type InvitationResponse struct {
	ID         string     `json:"id"`
	CompanyID  string     `json:"company_id"`
	Email      string     `json:"email"`
	Role       string     `json:"role"`
	Status     string     `json:"status"`
	ExpiresAt  time.Time  `json:"expires_at"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

var (
	ErrNotFound         = errors.New("invitation not found")
	ErrExpired          = errors.New("invitation expired")
	ErrEmailMismatch    = errors.New("invitation email mismatch")
	ErrAlreadyResolved  = errors.New("invitation already resolved")
	ErrAlreadyAccepted  = errors.New("invitation accepted by another user")
	ErrDuplicatePending = errors.New("pending invitation already exists")
	ErrInvalidEmail     = errors.New("invalid_email")
	ErrInvalidRole      = errors.New("invalid_role")
	ErrForbidden        = errors.New("forbidden")
)
