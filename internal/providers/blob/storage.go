package blob

import (
	"context"
	"fmt"
	"time"
)

// Storage hands out short-lived download links for stored objects. The
// portal never streams file bytes itself.
type Storage interface {
	PresignedGet(ctx context.Context, objectPath string, expiry time.Duration) (string, error)
}

// NoOpStorage serves local development without an object store; links point
// at a static file route.
type NoOpStorage struct{}

func (s *NoOpStorage) PresignedGet(ctx context.Context, objectPath string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("/files/%s", objectPath), nil
}
