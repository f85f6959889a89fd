package controllers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const searchCacheTTL = 10 * time.Minute

// searchCacheKey hashes the normalized search parameters so equivalent
// searches share one cache entry.
func searchCacheKey(p searchPayload) string {
	raw := fmt.Sprintf("address=%s&action=%s&propertyType=%s&bedrooms=%s&bathrooms=%s&price=%s&page=%d",
		p.Address, p.Action, p.PropertyType, p.Bedrooms, p.Bathrooms, p.Price, p.Page)
	sum := sha256.Sum256([]byte(raw))
	return "ads:search:" + hex.EncodeToString(sum[:])
}

func cacheGet(ctx context.Context, rdb *redis.Client, key string) ([]byte, bool) {
	if rdb == nil {
		return nil, false
	}
	data, err := rdb.Get(ctx, key).Bytes()
	if err == nil {
		return data, true
	}
	if err != redis.Nil {
		log.Printf("Redis GET error for key %s: %v", key, err)
	}
	return nil, false
}

func cacheSet(ctx context.Context, rdb *redis.Client, key string, data []byte) {
	if rdb == nil {
		return
	}
	if err := rdb.Set(ctx, key, data, searchCacheTTL).Err(); err != nil {
		log.Printf("Failed to cache response for key %s: %v", key, err)
	}
}

// invalidateSearchCache drops every cached search page. Called in a detached
// goroutine after any listing mutation.
func invalidateSearchCache(rdb *redis.Client) {
	if rdb == nil {
		return
	}

	ctx := context.Background()
	const scanPattern = "ads:search:*"
	const scanCount = 100

	var keysToDelete []string
	var cursor uint64
	var err error

	for {
		var currentKeys []string
		currentKeys, cursor, err = rdb.Scan(ctx, cursor, scanPattern, scanCount).Result()
		if err != nil {
			log.Printf("Error during Redis SCAN for pattern %q: %v", scanPattern, err)
			return
		}
		keysToDelete = append(keysToDelete, currentKeys...)
		if cursor == 0 {
			break
		}
	}

	if len(keysToDelete) == 0 {
		return
	}

	pipe := rdb.Pipeline()
	for _, key := range keysToDelete {
		pipe.Del(ctx, key)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("Error deleting %d search cache keys: %v", len(keysToDelete), err)
	}
}
