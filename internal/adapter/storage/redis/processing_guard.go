package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// ProcessingGuard implements ports.ProcessingGuard using Redis SET NX. The
// marker survives this process, so a second instance deciding the same
// request is also kept out.
type ProcessingGuard struct {
	client *goredis.Client
	prefix string
}

// NewProcessingGuard creates a Redis-backed processing guard.
func NewProcessingGuard(client *goredis.Client) *ProcessingGuard {
	return &ProcessingGuard{
		client: client,
		prefix: "processing:",
	}
}

// Acquire atomically marks the key as in-processing. Returns false when
// another decision already holds the marker. The TTL bounds how long the
// marker can outlive a crashed holder.
func (g *ProcessingGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	result, err := g.client.SetArgs(ctx, g.prefix+key, 1, goredis.SetArgs{
		Mode: "NX",
		TTL:  ttl,
	}).Result()
	if err != nil {
		if err == goredis.Nil {
			// Key already exists — someone else is processing this request
			return false, nil
		}
		return false, fmt.Errorf("redis processing acquire: %w", err)
	}
	return result == "OK", nil
}

// Release removes the marker once the decision path has finished.
func (g *ProcessingGuard) Release(ctx context.Context, key string) error {
	if err := g.client.Del(ctx, g.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis processing release: %w", err)
	}
	return nil
}
