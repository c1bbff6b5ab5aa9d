package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// CooldownStore implements ports.CooldownStore using Redis SET NX with a TTL
// equal to the cooldown window: the first action in a window plants the key,
// further actions are refused until it expires.
type CooldownStore struct {
	client *goredis.Client
	prefix string
}

// NewCooldownStore creates a Redis-backed approver cooldown store.
func NewCooldownStore(client *goredis.Client) *CooldownStore {
	return &CooldownStore{
		client: client,
		prefix: "cooldown:approver:",
	}
}

// Allow reports whether the approver may act now. The action is recorded
// atomically when allowed, so two simultaneous checks cannot both pass.
func (s *CooldownStore) Allow(ctx context.Context, approverID int64, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}

	key := fmt.Sprintf("%s%d", s.prefix, approverID)
	result, err := s.client.SetArgs(ctx, key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  window,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			// Key already exists — approver acted within the window
			return false, nil
		}
		return false, fmt.Errorf("redis cooldown check: %w", err)
	}
	return result == "OK", nil
}
