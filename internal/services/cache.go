package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

func unmarshalCached(val string, dest interface{}) error {
	return json.Unmarshal([]byte(val), dest)
}

func setCached(ctx context.Context, rdb *redis.Client, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("[CACHE] Failed to marshal %s: %v", key, err)
		return
	}
	if err := rdb.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("[CACHE] Failed to set %s: %v", key, err)
	}
}
