package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	InsertRFP(ctx context.Context, rfp RFP) error
	GetRFP(ctx context.Context, id snowflake.ID) (*RFP, error)
	ListRFPs(ctx context.Context, statuses []string) ([]RFP, error)
	// TransitionRFP flips the status when the row is still in from; reports
	// whether it matched.
	TransitionRFP(ctx context.Context, id snowflake.ID, from, to string, publishedAt *time.Time, now time.Time) (bool, error)

	InsertRegistration(ctx context.Context, registration CompanyRegistration) error
	GetRegistration(ctx context.Context, rfpID, companyID snowflake.ID) (*CompanyRegistration, error)
	GetRegistrationByID(ctx context.Context, id snowflake.ID) (*CompanyRegistration, error)
	ListRegistrations(ctx context.Context, rfpID snowflake.ID) ([]CompanyRegistration, error)
	ResolveRegistration(ctx context.Context, id snowflake.ID, status string, reviewer snowflake.ID, now time.Time) (bool, error)
}
