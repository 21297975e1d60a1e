package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusDraft     = "DRAFT"
	StatusPublished = "PUBLISHED"
	StatusClosed    = "CLOSED"
)

const (
	RegistrationPending  = "PENDING"
	RegistrationApproved = "APPROVED"
	RegistrationRejected = "REJECTED"
)

type RFP struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Title       string       `gorm:"not null" json:"title"`
	Description string       `json:"description"`
	Status      string       `gorm:"not null;index:ix_rfps_status" json:"status"`
	CreatedBy   snowflake.ID `gorm:"not null" json:"created_by"`
	PublishedAt *time.Time   `json:"published_at,omitempty"`
	ClosesAt    *time.Time   `json:"closes_at,omitempty"`
	CreatedAt   time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null" json:"updated_at"`
}

func (RFP) TableName() string {
	return "rfps"
}

// CompanyRegistration is a company's application to bid on an RFP. Approval
// is one of the two gates the entitlement resolver checks before releasing
// protected documents.
type CompanyRegistration struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	RFPID       snowflake.ID  `gorm:"not null;uniqueIndex:ux_registrations_rfp_company" json:"rfp_id"`
	CompanyID   snowflake.ID  `gorm:"not null;uniqueIndex:ux_registrations_rfp_company" json:"company_id"`
	Status      string        `gorm:"not null" json:"status"`
	RequestedBy snowflake.ID  `gorm:"not null" json:"requested_by"`
	ReviewedBy  *snowflake.ID `json:"reviewed_by,omitempty"`
	ResolvedAt  *time.Time    `json:"resolved_at,omitempty"`
	CreatedAt   time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null" json:"updated_at"`
}

func (CompanyRegistration) TableName() string {
	return "company_registrations"
}
