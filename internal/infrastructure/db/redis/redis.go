package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/99minutos/backoffice-api/internal/core/ports"
)

const defaultTimeout = 5 * time.Second

// Config selects the Redis server. An empty Addr turns Redis off.
type Config struct {
	Addr    string
	DB      int
	Timeout time.Duration
}

// Client is the optional Redis connection behind notification dedup and the
// health report. Every method is safe on a nil *Client, which stands for
// "Redis disabled".
type Client struct {
	rdb     *redis.Client
	timeout time.Duration
}

// New builds a client for cfg without contacting the server, so a Redis
// that is down at startup still shows up as unhealthy and is picked up once
// it recovers. It returns nil when cfg.Addr is empty.
func New(cfg Config) *Client {
	if cfg.Addr == "" {
		return nil
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		rdb: redis.NewClient(&redis.Options{
			Addr:         cfg.Addr,
			DB:           cfg.DB,
			DialTimeout:  timeout,
			ReadTimeout:  timeout,
			WriteTimeout: timeout,
		}),
		timeout: timeout,
	}
}

// Enabled reports whether a server is configured.
func (c *Client) Enabled() bool { return c != nil && c.rdb != nil }

// Ping round-trips to the server within the client timeout.
func (c *Client) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	return c.rdb.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.rdb.Close()
}

// Dedup returns the Redis-backed dedup, or NoopDedup when Redis is off.
func (c *Client) Dedup() ports.NotificationDedup {
	if !c.Enabled() {
		return NoopDedup{}
	}
	return NewDedupChecker(c.rdb)
}
