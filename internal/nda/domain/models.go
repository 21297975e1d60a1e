package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	ScopeIndividual = "INDIVIDUAL"
	ScopeCompany    = "COMPANY"
)

const (
	StatusSigned   = "SIGNED"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// NDARecord tracks one NDA signature per subject and RFP. Individual records
// bind a user; company records bind every current member of the company.
// Countersigning moves SIGNED to APPROVED or REJECTED; re-signing updates the
// row in place with a fresh signed_at and clears any countersignature.
type NDARecord struct {
	ID               snowflake.ID   `gorm:"primaryKey" json:"id"`
	RFPID            snowflake.ID   `gorm:"not null;uniqueIndex:ux_nda_subject" json:"rfp_id"`
	Scope            string         `gorm:"not null;uniqueIndex:ux_nda_subject" json:"scope"`
	UserID           snowflake.ID   `gorm:"uniqueIndex:ux_nda_subject" json:"user_id,omitempty"`
	CompanyID        snowflake.ID   `gorm:"uniqueIndex:ux_nda_subject" json:"company_id,omitempty"`
	Status           string         `gorm:"not null" json:"status"`
	SignedBy         snowflake.ID   `gorm:"not null" json:"signed_by"`
	SignedAt         time.Time      `gorm:"not null" json:"signed_at"`
	SignaturePayload datatypes.JSON `json:"signature_payload,omitempty"`
	CountersignedBy  *snowflake.ID  `json:"countersigned_by,omitempty"`
	CountersignedAt  *time.Time     `json:"countersigned_at,omitempty"`
	RejectReason     string         `json:"reject_reason,omitempty"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
}

func (NDARecord) TableName() string {
	return "nda_records"
}
