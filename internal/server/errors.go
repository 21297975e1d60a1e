package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rfpdock/rfpdock/internal/authorization"
	companydomain "github.com/rfpdock/rfpdock/internal/company/domain"
	documentdomain "github.com/rfpdock/rfpdock/internal/document/domain"
	entitlementdomain "github.com/rfpdock/rfpdock/internal/entitlement/domain"
	identitydomain "github.com/rfpdock/rfpdock/internal/identity/domain"
	invitationdomain "github.com/rfpdock/rfpdock/internal/invitation/domain"
	joinrequestdomain "github.com/rfpdock/rfpdock/internal/joinrequest/domain"
	ndadomain "github.com/rfpdock/rfpdock/internal/nda/domain"
	notificationdomain "github.com/rfpdock/rfpdock/internal/notification/domain"
	rfpdomain "github.com/rfpdock/rfpdock/internal/rfp/domain"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not_found")
	ErrRateLimited  = errors.New("rate_limited")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if isValidationError(err) {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   "request",
					Code:    err.Error(),
					Message: "invalid value",
				},
			},
		}
	}

	switch {
	case isUnauthorizedError(err):
		return http.StatusUnauthorized, errorPayload{
			Type:    "unauthorized",
			Message: "unauthorized",
		}
	case errors.Is(err, documentdomain.ErrApprovalRequired),
		errors.Is(err, documentdomain.ErrNDARequired):
		return http.StatusForbidden, errorPayload{
			Type:    "entitlement_denied",
			Message: err.Error(),
		}
	case isForbiddenError(err):
		return http.StatusForbidden, errorPayload{
			Type:    "forbidden",
			Message: "forbidden",
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case errors.Is(err, invitationdomain.ErrExpired):
		return http.StatusGone, errorPayload{
			Type:    "expired",
			Message: err.Error(),
		}
	case isConflictError(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: err.Error(),
		}
	case errors.Is(err, ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func isValidationError(err error) bool {
	switch {
	case errors.Is(err, identitydomain.ErrInvalidRole),
		errors.Is(err, companydomain.ErrInvalidName),
		errors.Is(err, companydomain.ErrInvalidCompany),
		errors.Is(err, companydomain.ErrInvalidUser),
		errors.Is(err, invitationdomain.ErrInvalidEmail),
		errors.Is(err, invitationdomain.ErrInvalidRole),
		errors.Is(err, joinrequestdomain.ErrInvalidCompany),
		errors.Is(err, joinrequestdomain.ErrInvalidRequest),
		errors.Is(err, rfpdomain.ErrInvalidTitle),
		errors.Is(err, documentdomain.ErrInvalidTitle),
		errors.Is(err, documentdomain.ErrInvalidFile),
		errors.Is(err, ndadomain.ErrReasonRequired),
		errors.Is(err, notificationdomain.ErrInvalidID):
		return true
	default:
		return false
	}
}

func isUnauthorizedError(err error) bool {
	switch {
	case errors.Is(err, ErrUnauthorized),
		errors.Is(err, identitydomain.ErrInvalidCredentials),
		errors.Is(err, identitydomain.ErrInvalidSession),
		errors.Is(err, identitydomain.ErrSessionNotFound),
		errors.Is(err, identitydomain.ErrSessionExpired),
		errors.Is(err, identitydomain.ErrSessionRevoked):
		return true
	default:
		return false
	}
}

func isForbiddenError(err error) bool {
	switch {
	case errors.Is(err, ErrForbidden),
		errors.Is(err, authorization.ErrForbidden),
		errors.Is(err, entitlementdomain.ErrPermissionDenied),
		errors.Is(err, companydomain.ErrForbidden),
		errors.Is(err, invitationdomain.ErrForbidden),
		errors.Is(err, invitationdomain.ErrEmailMismatch),
		errors.Is(err, joinrequestdomain.ErrForbidden),
		errors.Is(err, rfpdomain.ErrForbidden),
		errors.Is(err, documentdomain.ErrForbidden),
		errors.Is(err, ndadomain.ErrForbidden):
		return true
	default:
		return false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, identitydomain.ErrUserNotFound),
		errors.Is(err, companydomain.ErrNotFound),
		errors.Is(err, companydomain.ErrMemberNotFound),
		errors.Is(err, invitationdomain.ErrNotFound),
		errors.Is(err, joinrequestdomain.ErrNotFound),
		errors.Is(err, rfpdomain.ErrNotFound),
		errors.Is(err, rfpdomain.ErrRegistrationNotFound),
		errors.Is(err, documentdomain.ErrNotFound),
		errors.Is(err, ndadomain.ErrNotFound),
		errors.Is(err, notificationdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isConflictError(err error) bool {
	switch {
	case errors.Is(err, identitydomain.ErrUserExists),
		errors.Is(err, companydomain.ErrMembershipExists),
		errors.Is(err, invitationdomain.ErrAlreadyResolved),
		errors.Is(err, invitationdomain.ErrAlreadyAccepted),
		errors.Is(err, invitationdomain.ErrDuplicatePending),
		errors.Is(err, joinrequestdomain.ErrAlreadyResolved),
		errors.Is(err, joinrequestdomain.ErrDuplicatePending),
		errors.Is(err, joinrequestdomain.ErrMembershipExists),
		errors.Is(err, rfpdomain.ErrInvalidState),
		errors.Is(err, rfpdomain.ErrNotPublished),
		errors.Is(err, rfpdomain.ErrNoCompany),
		errors.Is(err, rfpdomain.ErrDuplicateRegistration),
		errors.Is(err, rfpdomain.ErrAlreadyResolved),
		errors.Is(err, ndadomain.ErrAlreadySigned),
		errors.Is(err, ndadomain.ErrNotCounterable),
		errors.Is(err, ndadomain.ErrNoCompany):
		return true
	default:
		return false
	}
}

// classifyErrorForLog feeds the request logger the same taxonomy the error
// middleware uses for responses.
func classifyErrorForLog(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	_, payload := mapError(err)
	return payload.Type, err.Error()
}
