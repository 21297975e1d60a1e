package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusExpired  = "EXPIRED"
	StatusRejected = "REJECTED"
)

type Invitation struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID  snowflake.ID `gorm:"not null;index:ix_invitations_company" json:"company_id"`
	Email      string       `gorm:"not null" json:"email"`
	Role       string       `gorm:"not null" json:"role"`
	Token      string       `gorm:"not null;uniqueIndex:ux_invitations_token" json:"-"`
	Status     string       `gorm:"not null" json:"status"`
	InvitedBy  snowflake.ID `gorm:"not null" json:"invited_by"`
	ExpiresAt  time.Time    `gorm:"not null" json:"expires_at"`
	ResolvedAt *time.Time   `json:"resolved_at,omitempty"`
	CreatedAt  time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time    `gorm:"not null" json:"updated_at"`
}

func (Invitation) TableName() string {
	return "invitations"
}
