package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

type sentValue struct {
	RemoteMessageID string    `json:"remoteMessageId"`
	SentAt          time.Time `json:"sentAt"`
}

func receiptKey(id uuid.UUID) string {
	return "msg:" + id.String()
}

func (c *RedisCache) StoreSent(ctx context.Context, messageID uuid.UUID, remoteMessageID string, sentAt time.Time) error {
	b, err := json.Marshal(sentValue{
		RemoteMessageID: remoteMessageID,
		SentAt:          sentAt.UTC(),
	})
	if err != nil {
		return err
	}

	return c.rdb.Set(ctx, receiptKey(messageID), b, c.ttl).Err()
}

// Ping reports whether Redis is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
