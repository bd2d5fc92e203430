package main

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jason-s-yu/bingo/internal/cache"
	"github.com/jason-s-yu/bingo/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedSource []string

func (f fixedSource) Phrases(ctx context.Context) ([]string, error) {
	return f, nil
}

func TestInvalidatePhraseCacheWithoutRedis(t *testing.T) {
	assert.NoError(t, invalidatePhraseCache(context.Background(), config.Config{}, fixedSource{}))

	cfg := config.Config{RedisAddr: "127.0.0.1:1"}
	assert.Error(t, invalidatePhraseCache(context.Background(), cfg, fixedSource{}))
}

func TestInvalidatePhraseCacheDropsKey(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set; skipping Redis tests")
	}
	ctx := context.Background()
	rdb, err := cache.ConnectRedis(ctx, addr, 0)
	require.NoError(t, err)
	defer rdb.Close()

	stale := cache.NewPhraseCache(rdb, fixedSource{"Old phrase"}, time.Minute)
	_, err = stale.Phrases(ctx)
	require.NoError(t, err)

	cfg := config.Config{RedisAddr: addr, PhraseCacheTTL: time.Minute}
	require.NoError(t, invalidatePhraseCache(ctx, cfg, fixedSource{"New phrase"}))

	n, err := rdb.Exists(ctx, cache.DefaultPhraseKey).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}
