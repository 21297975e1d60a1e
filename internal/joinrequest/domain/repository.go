package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type JoinRequestRow struct {
	JoinRequest
	Email string
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Insert(ctx context.Context, request JoinRequest) error
	GetByID(ctx context.Context, id snowflake.ID) (*JoinRequest, error)
	// FindPendingByUser returns the user's open request, or nil. At most one
	// can be open at a time across all companies.
	FindPendingByUser(ctx context.Context, userID snowflake.ID) (*JoinRequest, error)
	ListForCompany(ctx context.Context, companyID snowflake.ID) ([]JoinRequestRow, error)
	// Resolve flips a PENDING row to the given status and reports whether it
	// matched; concurrent reviewers race on this and exactly one wins.
	Resolve(ctx context.Context, id snowflake.ID, status string, reviewer snowflake.ID, now time.Time) (bool, error)
}
