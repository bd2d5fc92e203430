// cmd/seed/main.go
package main

import (
	"context"
	"flag"
	"time"

	"github.com/jason-s-yu/bingo/internal/cache"
	"github.com/jason-s-yu/bingo/internal/config"
	"github.com/jason-s-yu/bingo/internal/database"
	"github.com/jason-s-yu/bingo/internal/phrases"
	_ "github.com/joho/godotenv/autoload"
	log "github.com/sirupsen/logrus"
)

func main() {
	file := flag.String("file", "", "JSON phrase file to load (defaults to PHRASES_FILE)")
	flag.Parse()

	cfg := config.Load()
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_HOST must be set")
	}
	path := cfg.PhrasesFile
	if *file != "" {
		path = *file
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	texts, err := phrases.NewFileSource(path).Phrases(ctx)
	if err != nil {
		log.WithError(err).Fatal("failed to load phrases")
	}

	pool, err := database.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	defer pool.Close()

	store := database.NewPhraseStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		log.WithError(err).Fatal("failed to create schema")
	}
	n, err := store.InsertPhrases(ctx, texts)
	if err != nil {
		log.WithError(err).Fatal("seed failed")
	}
	log.WithFields(log.Fields{"file": path, "inserted": n, "read": len(texts)}).Info("seed completed")

	if err := invalidatePhraseCache(ctx, cfg, store); err != nil {
		log.WithError(err).Warn("phrase cache not invalidated; it refreshes after PHRASE_CACHE_TTL")
	}
}

// invalidatePhraseCache drops the cached pool so servers pick up the new
// phrases on their next board. It is a no-op without REDIS_ADDR.
func invalidatePhraseCache(ctx context.Context, cfg config.Config, src cache.Source) error {
	if cfg.RedisAddr == "" {
		return nil
	}
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return err
	}
	defer rdb.Close()
	if err := cache.NewPhraseCache(rdb, src, cfg.PhraseCacheTTL).Invalidate(ctx); err != nil {
		return err
	}
	log.WithField("key", cache.DefaultPhraseKey).Info("phrase cache invalidated")
	return nil
}
