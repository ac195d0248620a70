package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultNamespace = "session"

// revokedMarker is stored in place of a user ID by Revoke. xids never
// contain '!'.
const revokedMarker = "!revoked"

// RedisTokenCache stores token → user ID entries in Redis with a TTL.
//
// Keys are "<namespace>:<sha256(token)>" so a dump of the Redis keyspace
// does not hand out usable bearer tokens.
type RedisTokenCache struct {
	rdb       *redis.Client
	namespace string
}

var _ TokenCache = (*RedisTokenCache)(nil)

// NewRedisTokenCache wraps rdb. An empty namespace defaults to "session".
func NewRedisTokenCache(rdb *redis.Client, namespace string) *RedisTokenCache {
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &RedisTokenCache{rdb: rdb, namespace: namespace}
}

// NewRedisClient opens a client and checks the server answers PING.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("cache: connecting to redis at %s: %w", addr, err)
	}
	return rdb, nil
}

func (c *RedisTokenCache) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return c.namespace + ":" + hex.EncodeToString(sum[:])
}

func (c *RedisTokenCache) Get(ctx context.Context, token string) (string, bool, error) {
	userID, err := c.rdb.Get(ctx, c.key(token)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("cache: get session: %w", err)
	}
	if userID == revokedMarker {
		return "", false, nil
	}
	return userID, true, nil
}

// Add stores the mapping for ttl with SET NX. A non-positive ttl stores
// nothing, since the session it describes is already over.
func (c *RedisTokenCache) Add(ctx context.Context, token, userID string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.rdb.SetNX(ctx, c.key(token), userID, ttl).Err(); err != nil {
		return fmt.Errorf("cache: add session: %w", err)
	}
	return nil
}

// Revoke overwrites the entry with revokedMarker for ttl.
func (c *RedisTokenCache) Revoke(ctx context.Context, token string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := c.rdb.Set(ctx, c.key(token), revokedMarker, ttl).Err(); err != nil {
		return fmt.Errorf("cache: revoke session: %w", err)
	}
	return nil
}
