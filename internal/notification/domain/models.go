package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	EventInvitationIssued     = "invitation.issued"
	EventJoinRequestSubmitted = "join_request.submitted"
	EventJoinRequestApproved  = "join_request.approved"
	EventJoinRequestRejected  = "join_request.rejected"
	EventRegistrationApproved = "registration.approved"
	EventRegistrationRejected = "registration.rejected"
	EventNDAApproved          = "nda.approved"
	EventNDARejected          = "nda.rejected"
	EventCompanyNDASigned     = "company_nda.signed"
	EventCompanyNDAApproved   = "company_nda.approved"
	EventCompanyNDARejected   = "company_nda.rejected"
)

type Notification struct {
	ID        snowflake.ID   `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID   `gorm:"index:ix_notifications_user" json:"user_id"`
	Email     string         `json:"email"`
	EventType string         `gorm:"not null" json:"event_type"`
	Payload   datatypes.JSON `json:"payload"`
	ReadAt    *time.Time     `json:"read_at,omitempty"`
	CreatedAt time.Time      `gorm:"not null" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}
