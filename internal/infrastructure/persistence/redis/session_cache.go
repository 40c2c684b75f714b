// Package redis implements an optional cache for Librus session cookies.
// The portal throttles logins hard, so reusing a still-valid session between
// scheduler ticks saves a login round trip per account. Everything here is
// fail-open: when Redis is missing or down, accounts just log in fresh.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/librus-hub/librus-notify/pkg/logger"
)

// ErrCacheMiss is returned when no session is cached for an account.
var ErrCacheMiss = errors.New("session cache: key not found")

// SessionTTL bounds how long a cached session is trusted. Librus sessions
// expire server-side well before this; the TTL only keeps dead cookies from
// lingering.
const SessionTTL = 30 * time.Minute

const keyPrefix = "librus:session:"

// SessionCache stores serialized cookie strings per account.
type SessionCache struct {
	client *redis.Client
	log    *logger.Logger
}

// NewSessionCache connects to Redis using a REDIS_URL string.
func NewSessionCache(ctx context.Context, redisURL string, log *logger.Logger) (*SessionCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("session cache: failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("session cache: connection failed: %w", err)
	}

	return &SessionCache{client: client, log: log}, nil
}

// Close closes the Redis connection.
func (c *SessionCache) Close() error {
	return c.client.Close()
}

// Get returns the cached cookie header for an account, or ErrCacheMiss.
func (c *SessionCache) Get(ctx context.Context, accountKey string) (string, error) {
	val, err := c.client.Get(ctx, keyPrefix+accountKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return val, nil
}

// Put caches the cookie header for an account with the session TTL.
func (c *SessionCache) Put(ctx context.Context, accountKey, cookies string) error {
	return c.client.Set(ctx, keyPrefix+accountKey, cookies, SessionTTL).Err()
}

// Invalidate drops a cached session, used after the portal rejects it.
func (c *SessionCache) Invalidate(ctx context.Context, accountKey string) {
	if err := c.client.Del(ctx, keyPrefix+accountKey).Err(); err != nil {
		c.log.Warn("failed to invalidate cached session",
			logger.Account(accountKey), logger.Err(err))
	}
}
