package authorization

import (
	"context"
	"errors"

	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
)

const (
	ObjectCompany      = "company"
	ObjectInvitation   = "invitation"
	ObjectJoinRequest  = "join_request"
	ObjectRFP          = "rfp"
	ObjectRegistration = "registration"
	ObjectDocument     = "document"
	ObjectNDA          = "nda"
	ObjectNotification = "notification"
)

const (
	ActionView     = "view"
	ActionCreate   = "create"
	ActionManage   = "manage"
	ActionRedeem   = "redeem"
	ActionReview   = "review"
	ActionSign     = "sign"
	ActionDownload = "download"
)

var (
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidActor = errors.New("invalid_actor")
)

// Service answers coarse platform-role capability checks. Fine-grained
// ownership rules (is this caller an admin of this company) live in the
// feature services; this layer only fences whole route groups.
type Service interface {
	Authorize(ctx context.Context, principal identitydomain.Principal, object, action string) error
}
