package domain

import (
	"context"
	"errors"
	"time"

	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
)

type Service interface {
	// Request asks to join a company. The caller gets a provisional PENDING
	// membership that grants nothing until an admin approves it.
	Request(ctx context.Context, principal identitydomain.Principal, req RequestJoin) (*JoinRequestResponse, error)
	ListForCompany(ctx context.Context, principal identitydomain.Principal, companyID string) ([]JoinRequestResponse, error)
	Approve(ctx context.Context, principal identitydomain.Principal, requestID string) (*JoinRequestResponse, error)
	// Reject declines the request. The optional reason is relayed to the
	// requester in the rejection notification.
	Reject(ctx context.Context, principal identitydomain.Principal, requestID, reason string) (*JoinRequestResponse, error)
}

type RequestJoin struct {
	CompanyID string
	Message   string
}

type JoinRequestResponse struct {
	ID         string     `json:"id"`
	CompanyID  string     `json:"company_id"`
	UserID     string     `json:"user_id"`
	Email      string     `json:"email,omitempty"`
	Message    string     `json:"message,omitempty"`
	Status     string     `json:"status"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

var (
	ErrNotFound         = errors.New("join request not found")
	ErrAlreadyResolved  = errors.New("join request already resolved")
	ErrDuplicatePending = errors.New("pending join request already exists")
	ErrMembershipExists = errors.New("membership already exists")
	ErrInvalidCompany   = errors.New("invalid_company")
	ErrInvalidRequest   = errors.New("invalid_request")
	ErrForbidden        = errors.New("forbidden")
)
