package domain

import (
	"context"
	"errors"

	documentdomain "github.com/rfpdock/rfpdock/internal/document/domain"
	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
)

type DenialReason string

const (
	ReasonApprovalRequired DenialReason = "approval_required"
	ReasonNDARequired      DenialReason = "nda_required"
)

// Decision is the outcome of resolving a principal against a document's
// gates. Reason is set only on denial.
type Decision struct {
	Allowed bool         `json:"allowed"`
	Reason  DenialReason `json:"reason,omitempty"`
}

// Resolver answers whether a principal may download a document right now.
// Decisions are computed from live membership, registration and NDA state;
// a short cache bounds the cost of hot documents.
type Resolver interface {
	CanAccess(ctx context.Context, principal identitydomain.Principal, document documentdomain.Document) (Decision, error)
}

var ErrPermissionDenied = errors.New("permission denied")
