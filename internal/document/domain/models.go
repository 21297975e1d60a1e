package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Document is a file attached to an RFP. The two flags drive the entitlement
// gates: RequiresApproval demands an approved company registration,
// RequiresNDA demands a satisfied NDA. Both false means any authenticated
// user may download.
type Document struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	RFPID            snowflake.ID `gorm:"not null;index:ix_documents_rfp" json:"rfp_id"`
	Title            string       `gorm:"not null" json:"title"`
	FilePath         string       `gorm:"not null" json:"-"`
	ContentType      string       `json:"content_type"`
	SizeBytes        int64        `json:"size_bytes"`
	RequiresNDA      bool         `gorm:"not null" json:"requires_nda"`
	RequiresApproval bool         `gorm:"not null" json:"requires_approval"`
	UploadedBy       snowflake.ID `gorm:"not null" json:"uploaded_by"`
	CreatedAt        time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null" json:"updated_at"`
}

func (Document) TableName() string {
	return "documents"
}
