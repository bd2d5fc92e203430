// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// DefaultPhraseKey is the Redis key holding the cached phrase pool.
const DefaultPhraseKey = "bingo:phrases"

// Source is the backing phrase pool the cache reads through to.
type Source interface {
	Phrases(ctx context.Context) ([]string, error)
}

// ConnectRedis returns a client for addr/db after a successful ping.
func ConnectRedis(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// PhraseCache is a read-through cache of a phrase Source. The pool is stored as
// one JSON array under Key with a TTL. Redis failures never fail a read: the
// cache falls back to the source.
type PhraseCache struct {
	rdb    *redis.Client
	source Source
	ttl    time.Duration
	Key    string
}

func NewPhraseCache(rdb *redis.Client, source Source, ttl time.Duration) *PhraseCache {
	return &PhraseCache{rdb: rdb, source: source, ttl: ttl, Key: DefaultPhraseKey}
}

// Phrases serves the cached pool, loading and storing it on a miss.
func (c *PhraseCache) Phrases(ctx context.Context) ([]string, error) {
	data, err := c.rdb.Get(ctx, c.Key).Bytes()
	switch {
	case err == nil:
		var phrases []string
		if jsonErr := json.Unmarshal(data, &phrases); jsonErr == nil {
			return phrases, nil
		}
		log.WithField("key", c.Key).Warn("discarding malformed phrase cache entry")
	case !errors.Is(err, redis.Nil):
		log.WithError(err).Warn("phrase cache read failed; using source")
	}

	phrases, err := c.source.Phrases(ctx)
	if err != nil {
		return nil, err
	}
	if err := c.store(ctx, phrases); err != nil {
		log.WithError(err).Warn("phrase cache write failed")
	}
	return phrases, nil
}

// Invalidate drops the cached pool so the next read goes to the source.
func (c *PhraseCache) Invalidate(ctx context.Context) error {
	if err := c.rdb.Del(ctx, c.Key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", c.Key, err)
	}
	return nil
}

func (c *PhraseCache) store(ctx context.Context, phrases []string) error {
	data, err := json.Marshal(phrases)
	if err != nil {
		return fmt.Errorf("failed to marshal phrases: %w", err)
	}
	if err := c.rdb.Set(ctx, c.Key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to SET %s: %w", c.Key, err)
	}
	return nil
}
