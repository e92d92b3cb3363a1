package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/driftboard/backend/internal/logger"
	"github.com/driftboard/backend/internal/metrics"
	"github.com/driftboard/backend/internal/models"
)

// RedisClient wraps the redis.Client with centralized connection pooling
type RedisClient struct {
	client *redis.Client
}

// NewRedisClient creates and initializes a Redis client with connection pooling
func NewRedisClient(host string, port string, password string) (*RedisClient, error) {
	if host == "" {
		host = "localhost"
	}
	if port == "" {
		port = "6379"
	}

	addr := fmt.Sprintf("%s:%s", host, port)

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           0,
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 5,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		DialTimeout:  5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.ErrorWithFields("Failed to connect to Redis", err)
		return nil, err
	}

	logger.Log.Info("Redis client connected",
		zap.String("address", addr),
	)

	return &RedisClient{client: client}, nil
}

// Close closes the Redis connection gracefully
func (rc *RedisClient) Close() error {
	if rc == nil || rc.client == nil {
		return nil
	}
	return rc.client.Close()
}

// UserLoader reads a user document on cache miss.
type UserLoader interface {
	GetUserByID(ctx context.Context, id string) (*models.UserProfile, error)
}

// SocialGraphCache keeps follow lists in Redis sets so feed reads do not hit
// the document store on every page. Entries expire and are invalidated on
// follow mutations.
type SocialGraphCache struct {
	redis *RedisClient
	users UserLoader
	ttl   time.Duration
}

const defaultGraphTTL = 10 * time.Minute

// NewSocialGraphCache wires the cache over a Redis client and a user loader.
func NewSocialGraphCache(rc *RedisClient, users UserLoader) *SocialGraphCache {
	return &SocialGraphCache{
		redis: rc,
		users: users,
		ttl:   defaultGraphTTL,
	}
}

func followingKey(userID string) string {
	return "user:" + userID + ":following"
}

// GetFollowing returns the ids the user follows, serving from Redis when
// cached and falling back to the document store otherwise. A Redis outage
// degrades to a direct store read.
func (c *SocialGraphCache) GetFollowing(ctx context.Context, userID string) ([]string, error) {
	key := followingKey(userID)

	if c.redis != nil {
		n, err := c.redis.client.SCard(ctx, key).Result()
		if err != nil {
			logger.Warn("Failed to read social graph cache", zap.Error(err), logger.WithUserID(userID))
		} else if n > 0 {
			ids, err := c.redis.client.SMembers(ctx, key).Result()
			if err == nil {
				metrics.Get().GraphCacheHitsTotal.WithLabelValues("following").Inc()
				return stripSentinel(ids), nil
			}
			logger.Warn("Failed to read cached following set", zap.Error(err), logger.WithUserID(userID))
		}
	}

	metrics.Get().GraphCacheMissesTotal.WithLabelValues("following").Inc()

	user, err := c.users.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if c.redis != nil {
		// A sentinel member keeps empty follow lists cacheable, since an
		// empty Redis set is indistinguishable from a miss.
		members := make([]interface{}, 0, len(user.Following)+1)
		members = append(members, sentinelMember)
		for _, id := range user.Following {
			members = append(members, id)
		}
		pipe := c.redis.client.Pipeline()
		pipe.SAdd(ctx, key, members...)
		pipe.Expire(ctx, key, c.ttl)
		if _, err := pipe.Exec(ctx); err != nil {
			logger.Warn("Failed to populate social graph cache", zap.Error(err), logger.WithUserID(userID))
		}
	}

	return user.Following, nil
}

const sentinelMember = "\x00empty"

func stripSentinel(ids []string) []string {
	out := ids[:0]
	for _, id := range ids {
		if id != sentinelMember {
			out = append(out, id)
		}
	}
	return out
}

// InvalidateUser drops the cached follow list after a follow mutation.
func (c *SocialGraphCache) InvalidateUser(ctx context.Context, userID string) {
	if c == nil || c.redis == nil {
		return
	}
	if err := c.redis.client.Del(ctx, followingKey(userID)).Err(); err != nil {
		logger.Warn("Failed to invalidate social graph cache", zap.Error(err), logger.WithUserID(userID))
	}
}
