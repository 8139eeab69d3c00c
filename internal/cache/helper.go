package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	memeKeyPrefix = "meme:%s"
	userKeyPrefix = "user:%s"
)

const (
	// MemeTTL bounds how stale a cached meme can get; like counts on cached
	// entries lag until the next toggle invalidates the key.
	MemeTTL = 5 * time.Minute
	UserTTL = 5 * time.Minute
)

// MemeKey returns the cache key for a meme by its opaque ID.
func MemeKey(id string) string {
	return fmt.Sprintf(memeKeyPrefix, id)
}

// UserKey returns the cache key for a user by username.
func UserKey(username string) string {
	return fmt.Sprintf(userKeyPrefix, username)
}

// GetJSON attempts to get the key from Redis and unmarshal into dest.
// Returns (true, nil) if found and unmarshaled, (false, nil) if not found.
func GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if client == nil {
		return false, nil
	}
	s, err := client.Get(ctx, key).Result()
	if err != nil {
		// redis.Nil and transport errors both degrade to a miss
		return false, nil
	}
	if err := json.Unmarshal([]byte(s), dest); err != nil {
		return false, nil
	}
	return true, nil
}

// SetJSON marshals v and sets the key with TTL.
func SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	if client == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return client.Set(ctx, key, b, ttl).Err()
}

// Aside tries Redis first, on miss it calls fetch (which must populate dest),
// then stores the result in Redis with ttl.
func Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	found, err := GetJSON(ctx, key, dest)
	if err != nil {
		return err
	}
	if found {
		return nil
	}

	// Fetch from source (DB)
	if err := fetch(); err != nil {
		return err
	}

	// Store into cache (best-effort)
	_ = SetJSON(ctx, key, dest, ttl)
	return nil
}

// Invalidate removes a key from the cache if the cache is available.
func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

// InvalidateMeme removes a cached meme.
func InvalidateMeme(ctx context.Context, id string) {
	Invalidate(ctx, MemeKey(id))
}

// InvalidateUser removes a cached user.
func InvalidateUser(ctx context.Context, username string) {
	Invalidate(ctx, UserKey(username))
}
