package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/backoffice-api/internal/core/domain"
)

const dedupTTL = time.Hour

// DedupChecker remembers delivered notifications in Redis.
// Key format: notify:<event>:<entity_id>[:<occurrence>]:<phone>
type DedupChecker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
func NewDedupChecker(client *redis.Client) *DedupChecker {
	return &DedupChecker{client: client, ttl: dedupTTL}
}

// Claim atomically marks n as delivered and reports whether this caller was
// first. A false result means an identical notification went out within the TTL.
func (d *DedupChecker) Claim(ctx context.Context, n domain.Notification) (bool, error) {
	ok, err := d.client.SetNX(ctx, Key(n), "1", d.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup claim: %w", err)
	}
	return ok, nil
}

// Release forgets n so a failed delivery can be attempted again.
func (d *DedupChecker) Release(ctx context.Context, n domain.Notification) error {
	return d.client.Del(ctx, Key(n)).Err()
}

// Key builds the dedup key for a notification.
func Key(n domain.Notification) string {
	if n.Occurrence == "" {
		return fmt.Sprintf("notify:%s:%s:%s", n.Event, n.EntityID, n.Phone)
	}
	return fmt.Sprintf("notify:%s:%s:%s:%s", n.Event, n.EntityID, n.Occurrence, n.Phone)
}

// NoopDedup is used when Redis is not configured; every claim succeeds.
type NoopDedup struct{}

func (NoopDedup) Claim(context.Context, domain.Notification) (bool, error) { return true, nil }

func (NoopDedup) Release(context.Context, domain.Notification) error { return nil }
