package domain

import (
	"context"
	"errors"
	"time"

	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
)

type Service interface {
	Create(ctx context.Context, principal identitydomain.Principal, req CreateRFPRequest) (*RFPResponse, error)
	Publish(ctx context.Context, principal identitydomain.Principal, rfpID string) (*RFPResponse, error)
	Close(ctx context.Context, principal identitydomain.Principal, rfpID string) (*RFPResponse, error)
	Get(ctx context.Context, principal identitydomain.Principal, rfpID string) (*RFPResponse, error)
	List(ctx context.Context, principal identitydomain.Principal) ([]RFPResponse, error)

	// Register applies on behalf of the caller's company. The caller must
	// hold an active membership; the RFP must be published.
	Register(ctx context.Context, principal identitydomain.Principal, rfpID string) (*RegistrationResponse, error)
	ReviewRegistration(ctx context.Context, principal identitydomain.Principal, registrationID string, approve bool) (*RegistrationResponse, error)
	ListRegistrations(ctx context.Context, principal identitydomain.Principal, rfpID string) ([]RegistrationResponse, error)
}

type CreateRFPRequest struct {
	Title       string
	Description string
	ClosesAt    *time.Time
}

type RFPResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	ClosesAt    *time.Time `json:"closes_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type RegistrationResponse struct {
	ID         string     `json:"id"`
	RFPID      string     `json:"rfp_id"`
	CompanyID  string     `json:"company_id"`
	Status     string     `json:"status"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

var (
	ErrNotFound              = errors.New("rfp not found")
	ErrRegistrationNotFound  = errors.New("registration not found")
	ErrInvalidTitle          = errors.New("invalid_title")
	ErrInvalidState          = errors.New("invalid rfp state")
	ErrNotPublished          = errors.New("rfp not open for registration")
	ErrNoCompany             = errors.New("caller has no active company")
	ErrDuplicateRegistration = errors.New("company already registered")
	ErrAlreadyResolved       = errors.New("registration already resolved")
	ErrForbidden             = errors.New("forbidden")
)
