package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
)

const sessionCacheTTL = 10 * time.Minute

// SessionCache is a Redis cache in front of chat session lookups. All methods
// tolerate a missing or unreachable Redis: reads report a miss and writes are
// dropped, so callers always fall through to Postgres.
type SessionCache struct {
	client *redis.Client
}

// NewSessionCache connects to Redis. If the server cannot be reached the
// cache is created in a disabled state rather than failing startup.
func NewSessionCache(addr, password string, db int) *SessionCache {
	if addr == "" {
		return &SessionCache{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := client.Ping(ctx).Result(); err != nil {
		log.Printf("Warning: Redis not available, session caching disabled: %v", err)
		return &SessionCache{}
	}

	log.Println("Connected to Redis")
	return &SessionCache{client: client}
}

func (c *SessionCache) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Get returns the cached session, or ErrNotFound on a miss.
func (c *SessionCache) Get(ctx context.Context, sessionID string) (*ChatSession, error) {
	if c.client == nil {
		return nil, ErrNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := c.client.Get(ctx, sessionKey(sessionID)).Result()
	if err != nil {
		return nil, ErrNotFound
	}

	var session ChatSession
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, ErrNotFound
	}
	return &session, nil
}

// Set caches a session for the cache TTL.
func (c *SessionCache) Set(ctx context.Context, session *ChatSession) error {
	if c.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sessionKey(session.SessionID), data, sessionCacheTTL).Err()
}

// Invalidate drops a session from the cache, e.g. after a new message.
func (c *SessionCache) Invalidate(ctx context.Context, sessionID string) error {
	if c.client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	return c.client.Del(ctx, sessionKey(sessionID)).Err()
}

func sessionKey(sessionID string) string {
	return fmt.Sprintf("chat_session:%s", sessionID)
}
