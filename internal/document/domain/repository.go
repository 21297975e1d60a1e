package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
)

type Repository interface {
	Insert(ctx context.Context, document Document) error
	GetByID(ctx context.Context, id snowflake.ID) (*Document, error)
	ListByRFP(ctx context.Context, rfpID snowflake.ID) ([]Document, error)
}
