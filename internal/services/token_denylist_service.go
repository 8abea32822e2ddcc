package services

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const denylistPrefix = "denylist:"

// TokenDenylist marks revoked session ids (the token's jti claim) in redis
// until the token's natural expiry. Revoking by jti keeps sibling sessions
// of the same user untouched.
type TokenDenylist struct {
	cache *redis.Client
}

func NewTokenDenylist(cache *redis.Client) *TokenDenylist {
	return &TokenDenylist{cache: cache}
}

func (d *TokenDenylist) Add(ctx context.Context, sessionID string, expiration time.Duration) error {
	return d.cache.Set(ctx, denylistPrefix+sessionID, 1, expiration).Err()
}

func (d *TokenDenylist) Contains(ctx context.Context, sessionID string) (bool, error) {
	val, err := d.cache.Get(ctx, denylistPrefix+sessionID).Result()
	if err != nil {
		if err == redis.Nil {
			return false, nil
		}
		return false, err
	}
	return val != "", nil
}
