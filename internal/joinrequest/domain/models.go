package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusPending    = "PENDING"
	StatusApproved   = "APPROVED"
	StatusRejected   = "REJECTED"
	StatusSuperseded = "SUPERSEDED"
)

type JoinRequest struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	CompanyID  snowflake.ID  `gorm:"not null;index:ix_join_requests_company" json:"company_id"`
	UserID     snowflake.ID  `gorm:"not null;index:ix_join_requests_user" json:"user_id"`
	Message    string        `json:"message"`
	Status     string        `gorm:"not null" json:"status"`
	ReviewedBy *snowflake.ID `json:"reviewed_by,omitempty"`
	ResolvedAt *time.Time    `json:"resolved_at,omitempty"`
	CreatedAt  time.Time     `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"not null" json:"updated_at"`
}

func (JoinRequest) TableName() string {
	return "join_requests"
}
