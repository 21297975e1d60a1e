// Package domain contains persistence models for the company directory.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Company verification lifecycle.
const (
	VerificationPending  = "PENDING"
	VerificationVerified = "VERIFIED"
)

// Company-scoped membership roles. PENDING marks a join request awaiting
// approval and confers no access.
const (
	RoleAdmin   = "ADMIN"
	RoleMember  = "MEMBER"
	RolePending = "PENDING"
)

// Company represents a bidding organization.
type Company struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	Name               string       `gorm:"type:text;not null" json:"name"`
	Slug               string       `gorm:"type:text;not null;uniqueIndex:ux_companies_slug" json:"slug"`
	Industry           string       `gorm:"type:text" json:"industry"`
	Domain             string       `gorm:"type:text;index" json:"domain"`
	VerificationStatus string       `gorm:"type:text;not null" json:"verification_status"`
	CreatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Company) TableName() string { return "companies" }

// Membership relates a user to at most one company. The unique index on
// user_id enforces the single-active-membership invariant at the storage
// layer; PENDING rows count against it so an invitation must explicitly
// replace them.
type Membership struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID snowflake.ID `gorm:"not null;index" json:"company_id"`
	UserID    snowflake.ID `gorm:"not null;uniqueIndex:ux_memberships_user" json:"user_id"`
	Role      string       `gorm:"type:text;not null" json:"role"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Membership) TableName() string { return "memberships" }
