// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jason-s-yu/bingo/internal/cache"
	"github.com/jason-s-yu/bingo/internal/config"
	"github.com/jason-s-yu/bingo/internal/database"
	"github.com/jason-s-yu/bingo/internal/game"
	"github.com/jason-s-yu/bingo/internal/handlers"
	"github.com/jason-s-yu/bingo/internal/middleware"
	"github.com/jason-s-yu/bingo/internal/phrases"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

func main() {
	cfg := config.Load()
	logger := newLogger(cfg)
	// the game package logs through the standard logrus logger
	logrus.SetLevel(logger.GetLevel())
	logrus.SetFormatter(logger.Formatter)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, closeSource := phraseSource(ctx, cfg, logger)
	defer closeSource()

	hub := handlers.NewHub(logger)
	store := game.NewRoomStore(game.NewBoardGenerator(source, cfg.PhraseTimeout), hub)

	mux := http.NewServeMux()
	logged := middleware.LogMiddleware(logger)

	mux.Handle("/", logged(http.HandlerFunc(handlers.HealthHandler)))
	mux.Handle("/rooms", logged(handlers.RoomsHandler(logger, store, hub)))
	mux.Handle("/ws", logged(handlers.WSHandler(logger, store, hub, handlers.WSOptions{
		OriginPatterns: cfg.AllowedOrigins,
		EventRate:      rate.Limit(cfg.EventRate),
		EventBurst:     cfg.EventBurst,
	})))

	if cfg.RoomIdleTimeout > 0 || cfg.EmptyRoomTimeout > 0 {
		go runJanitor(ctx, store, hub, cfg.RoomIdleTimeout, cfg.EmptyRoomTimeout, logger)
	}

	srv := &http.Server{Addr: cfg.Addr(), Handler: mux}
	go func() {
		logger.Infof("Running on %s", cfg.Addr())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("server exited: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("graceful shutdown failed")
	}
}

func newLogger(cfg config.Config) *logrus.Logger {
	logger := logrus.New()
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	if cfg.LogFormat == "json" {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	return logger
}

// phraseSource picks where boards draw their phrases from: PostgreSQL (behind
// the Redis cache when one is configured), else the JSON file.
func phraseSource(ctx context.Context, cfg config.Config, logger *logrus.Logger) (game.PhraseSource, func()) {
	file := phrases.NewFileSource(cfg.PhrasesFile)
	if cfg.DatabaseURL == "" {
		logger.WithField("file", cfg.PhrasesFile).Info("using phrase file")
		return file, func() {}
	}

	pool, err := database.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.WithError(err).Warn("phrase database unavailable; using phrase file")
		return file, func() {}
	}
	store := database.NewPhraseStore(pool)
	if err := store.EnsureSchema(ctx); err != nil {
		logger.WithError(err).Warn("could not ensure phrases schema")
	}

	if cfg.RedisAddr == "" {
		return store, pool.Close
	}
	rdb, err := cache.ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.WithError(err).Warn("phrase cache disabled")
		return store, pool.Close
	}
	logger.WithField("ttl", cfg.PhraseCacheTTL).Info("phrase cache enabled")
	return cache.NewPhraseCache(rdb, store, cfg.PhraseCacheTTL), func() {
		rdb.Close()
		pool.Close()
	}
}

// runJanitor evicts rooms idle for idleTTL and rooms nobody joined within
// emptyTTL until ctx ends. A zero TTL disables that sweep.
func runJanitor(ctx context.Context, store *game.RoomStore, hub *handlers.Hub, idleTTL, emptyTTL time.Duration, logger *logrus.Logger) {
	interval := time.Minute
	for _, ttl := range []time.Duration{idleTTL, emptyTTL} {
		if ttl > 0 && ttl/2 < interval {
			interval = ttl / 2
		}
	}
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	logger.WithFields(logrus.Fields{"idle": idleTTL, "empty": emptyTTL}).Info("room eviction enabled")

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			evicted := store.SweepIdle(now, idleTTL)
			evicted = append(evicted, store.SweepEmpty(now, emptyTTL)...)
			if len(evicted) > 0 {
				hub.PublishRooms(store)
			}
		}
	}
}
