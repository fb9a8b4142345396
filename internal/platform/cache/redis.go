package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultPingTimeout bounds the startup connectivity check.
const DefaultPingTimeout = 5 * time.Second

// New dials Redis at addr and verifies connectivity before handing the
// client out.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	return NewWithTimeout(ctx, addr, DefaultPingTimeout)
}

// NewWithTimeout is New with an explicit ping deadline.
func NewWithTimeout(ctx context.Context, addr string, pingTimeout time.Duration) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping %s: %w", addr, err)
	}
	return client, nil
}
