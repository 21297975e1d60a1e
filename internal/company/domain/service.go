package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
)

type Service interface {
	Create(ctx context.Context, principal identitydomain.Principal, req CreateCompanyRequest) (*CompanyResponse, error)
	GetByID(ctx context.Context, id string) (*CompanyResponse, error)
	ListMembers(ctx context.Context, principal identitydomain.Principal, companyID string) ([]MemberResponse, error)
	RemoveMember(ctx context.Context, principal identitydomain.Principal, companyID, userID string) error
	Search(ctx context.Context, principal identitydomain.Principal, term string) ([]CompanySummary, error)
	Suggest(ctx context.Context, principal identitydomain.Principal) ([]CompanySummary, error)
}

type CreateCompanyRequest struct {
	Name     string
	Industry string
	Domain   string
}

type CompanyResponse struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Slug               string `json:"slug"`
	Industry           string `json:"industry"`
	Domain             string `json:"domain"`
	VerificationStatus string `json:"verification_status"`
}

type CompanySummary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Industry string `json:"industry"`
	Domain   string `json:"domain"`
}

type MemberResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	JoinedAt  time.Time `json:"joined_at"`
	CompanyID string    `json:"company_id"`
}

// MembershipView is the cross-package read model used by workflow services
// and the entitlement resolver.
type MembershipView struct {
	CompanyID snowflake.ID
	UserID    snowflake.ID
	Role      string
}

var (
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidCompany   = errors.New("invalid_company")
	ErrInvalidUser      = errors.New("invalid_user")
	ErrMembershipExists = errors.New("membership already exists")
	ErrMemberNotFound   = errors.New("member not found")
	ErrNotFound         = errors.New("company not found")
	ErrForbidden        = errors.New("forbidden")
)
