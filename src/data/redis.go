package data

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/OneOfOne/xxhash"
	"github.com/redis/go-redis/v9"

	"github.com/moltbook/observatory/src/council"
)

const safetyPrefix = "safety:"

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatalf("redis: %v", err)
	}
	return redis.NewClient(opt)
}

// SafetyCache memoizes quick-safety-check verdicts for identical content.
// The check doubles as a real-time moderation path, so repeated lookups of
// the same content are common. Best-effort: cache errors degrade to a miss.
type SafetyCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSafetyCache(rdb *redis.Client, ttl time.Duration) *SafetyCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &SafetyCache{rdb: rdb, ttl: ttl}
}

func safetyKey(content string) string {
	return fmt.Sprintf("%s%x", safetyPrefix, xxhash.ChecksumString64(content))
}

func (c *SafetyCache) Get(ctx context.Context, content string) (council.SafetyVerdict, bool) {
	raw, err := c.rdb.Get(ctx, safetyKey(content)).Result()
	if err != nil {
		return council.SafetyVerdict{}, false
	}
	var verdict council.SafetyVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		return council.SafetyVerdict{}, false
	}
	return verdict, true
}

func (c *SafetyCache) Set(ctx context.Context, content string, v council.SafetyVerdict) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	c.rdb.Set(ctx, safetyKey(content), raw, c.ttl)
}
