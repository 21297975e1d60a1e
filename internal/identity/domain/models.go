// Package domain contains core types for the identity service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Platform-wide roles. Set at account creation; only an existing platform
// admin may change them afterwards.
const (
	RoleAdmin          = "ADMIN"
	RoleClientReviewer = "CLIENT_REVIEWER"
	RoleBidder         = "BIDDER"
)

// Principal is the authenticated actor passed explicitly into every
// workflow and resolver call. There is no ambient session state.
type Principal struct {
	ID           snowflake.ID `json:"id"`
	Email        string       `json:"email"`
	PlatformRole string       `json:"platform_role"`
}

func (p Principal) IsAdmin() bool {
	return p.PlatformRole == RoleAdmin
}

// IsReviewer reports whether the principal may countersign NDAs and review
// RFP registrations.
func (p Principal) IsReviewer() bool {
	return p.PlatformRole == RoleAdmin || p.PlatformRole == RoleClientReviewer
}

// User represents a portal account.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey"`
	Email        string       `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string       `gorm:"type:text;not null"`
	PlatformRole string       `gorm:"type:text;not null"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Session represents a persisted login session.
type Session struct {
	ID               snowflake.ID `gorm:"primaryKey"`
	UserID           snowflake.ID `gorm:"column:user_id;not null;index"`
	SessionTokenHash string       `gorm:"column:session_token_hash;type:text;not null;uniqueIndex"`
	UserAgent        string       `gorm:"column:user_agent;type:text"`
	IPAddress        string       `gorm:"column:ip_address;type:text"`
	ExpiresAt        time.Time    `gorm:"column:expires_at;not null;index"`
	RevokedAt        *time.Time   `gorm:"column:revoked_at"`
	CreatedAt        time.Time    `gorm:"column:created_at;not null;default:CURRENT_TIMESTAMP"`
	LastSeenAt       time.Time    `gorm:"column:last_seen_at;not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }
