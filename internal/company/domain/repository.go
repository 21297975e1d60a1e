package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type MemberRow struct {
	UserID    snowflake.ID
	Email     string
	Role      string
	CreatedAt time.Time
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateCompany(ctx context.Context, company Company) error
	GetCompany(ctx context.Context, id snowflake.ID) (*Company, error)

	// ActiveMembership returns the caller's membership row regardless of
	// role, or nil when the user belongs to no company.
	ActiveMembership(ctx context.Context, userID snowflake.ID) (*Membership, error)
	InsertMembership(ctx context.Context, member Membership) error
	// ReplaceMembership deletes any existing membership row for the user and
	// inserts the new one; used when an invitation supersedes a pending
	// join request.
	ReplaceMembership(ctx context.Context, member Membership) error
	// PromotePendingMembership flips a PENDING row to MEMBER; returns false
	// when no pending row matched.
	PromotePendingMembership(ctx context.Context, companyID, userID snowflake.ID, now time.Time) (bool, error)
	DeleteMembership(ctx context.Context, companyID, userID snowflake.ID) (bool, error)
	ListMembers(ctx context.Context, companyID snowflake.ID) ([]MemberRow, error)

	SearchCompanies(ctx context.Context, term string, limit int) ([]Company, error)
}
