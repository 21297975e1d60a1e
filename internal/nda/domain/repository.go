package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

type Repository interface {
	Insert(ctx context.Context, record NDARecord) error
	GetByID(ctx context.Context, id snowflake.ID) (*NDARecord, error)
	FindIndividual(ctx context.Context, rfpID, userID snowflake.ID) (*NDARecord, error)
	FindCompany(ctx context.Context, rfpID, companyID snowflake.ID) (*NDARecord, error)
	// ResetToSigned re-signs an existing record: back to SIGNED with a fresh
	// signed_at and payload, countersignature and rejection reason cleared.
	ResetToSigned(ctx context.Context, id, signer snowflake.ID, payload datatypes.JSON, now time.Time) error
	// Countersign flips a SIGNED record and reports whether it matched.
	Countersign(ctx context.Context, id snowflake.ID, status string, reviewer snowflake.ID, reason string, now time.Time) (bool, error)
	ListByRFP(ctx context.Context, rfpID snowflake.ID) ([]NDARecord, error)
}
