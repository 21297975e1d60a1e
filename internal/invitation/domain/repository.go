package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Insert(ctx context.Context, invitation Invitation) error
	GetByToken(ctx context.Context, token string) (*Invitation, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Invitation, error)
	// FindPending returns the live pending invitation for the address at the
	// company, or nil when none exists.
	FindPending(ctx context.Context, companyID snowflake.ID, email string, now time.Time) (*Invitation, error)

	// The Mark* methods flip a PENDING row and report whether it matched;
	// losing the race returns false, never an error.
	MarkAccepted(ctx context.Context, id snowflake.ID, now time.Time) (bool, error)
	MarkExpired(ctx context.Context, id snowflake.ID, now time.Time) (bool, error)
	MarkRejected(ctx context.Context, id snowflake.ID, now time.Time) (bool, error)

	// ExpireDue sweeps overdue pending invitations for a company. Expiry is
	// lazy: rows flip when someone looks, not on a timer.
	ExpireDue(ctx context.Context, companyID snowflake.ID, now time.Time) error
	ListByCompany(ctx context.Context, companyID snowflake.ID) ([]Invitation, error)

	// SupersedePendingJoinRequests closes out the user's open join requests
	// when an invitation wins the race.
	SupersedePendingJoinRequests(ctx context.Context, userID snowflake.ID, now time.Time) error
}
