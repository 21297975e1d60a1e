package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/rfpdock/rfpdock/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const (
	keySearch = "portal:search:user:%s"
	keyInvite = "portal:invite:company:%s"

	searchRate  = 5.0
	searchBurst = 15
	inviteRate  = 0.5
	inviteBurst = 10
)

// PortalLimiter throttles the two abuse-prone surfaces: directory search
// (per user) and invitation issuance (per company). Without a redis address
// configured the limiter is disabled and every request passes.
type PortalLimiter struct {
	enabled bool
	bucket  *TokenBucket
}

func NewPortalLimiter(cfg config.Config) *PortalLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" {
		return &PortalLimiter{}
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	return &PortalLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
	}
}

func (l *PortalLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *PortalLimiter) AllowSearch(ctx context.Context, userID snowflake.ID) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keySearch, userID.String()), searchRate, searchBurst)
}

func (l *PortalLimiter) AllowInvite(ctx context.Context, companyID string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyInvite, strings.TrimSpace(companyID)), inviteRate, inviteBurst)
}
