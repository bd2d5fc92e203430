// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the server reads from the environment.
type Config struct {
	Port           string
	AllowedOrigins []string

	// DatabaseURL is empty when no PostgreSQL phrase store is configured.
	DatabaseURL string

	// RedisAddr is empty when the phrase cache is disabled.
	RedisAddr      string
	RedisDB        int
	PhraseCacheTTL time.Duration

	PhrasesFile   string
	PhraseTimeout time.Duration

	// RoomIdleTimeout of zero disables idle eviction.
	RoomIdleTimeout time.Duration
	// EmptyRoomTimeout bounds how long a room nobody joined survives.
	EmptyRoomTimeout time.Duration

	EventRate  float64
	EventBurst int

	LogLevel  string
	LogFormat string
}

// Load reads the configuration from environment variables:
//   - PORT (default "8080")
//   - ALLOWED_ORIGINS, comma separated host patterns for the websocket origin check
//   - DATABASE_URL, or POSTGRES_USER / POSTGRES_PASSWORD / PG_HOST / PG_PORT / PG_DATABASE
//   - REDIS_ADDR, REDIS_DB, PHRASE_CACHE_TTL (default 5m)
//   - PHRASES_FILE (default "data/phrases.json"), PHRASE_TIMEOUT (default 3s)
//   - ROOM_IDLE_TIMEOUT (default 0, disabled)
//   - EMPTY_ROOM_TIMEOUT (default 10m, 0 disables)
//   - EVENT_RATE (default 20 per second), EVENT_BURST (default 40)
//   - LOG_LEVEL (default "info"), LOG_FORMAT ("text" or "json")
func Load() Config {
	return Config{
		Port:             getEnv("PORT", "8080"),
		AllowedOrigins:   splitList(os.Getenv("ALLOWED_ORIGINS")),
		DatabaseURL:      databaseURL(),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		RedisDB:          getEnvInt("REDIS_DB", 0),
		PhraseCacheTTL:   getEnvDuration("PHRASE_CACHE_TTL", 5*time.Minute),
		PhrasesFile:      getEnv("PHRASES_FILE", "data/phrases.json"),
		PhraseTimeout:    getEnvDuration("PHRASE_TIMEOUT", 3*time.Second),
		RoomIdleTimeout:  getEnvDuration("ROOM_IDLE_TIMEOUT", 0),
		EmptyRoomTimeout: getEnvDuration("EMPTY_ROOM_TIMEOUT", 10*time.Minute),
		EventRate:        getEnvFloat("EVENT_RATE", 20),
		EventBurst:       getEnvInt("EVENT_BURST", 40),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
	}
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// databaseURL prefers DATABASE_URL and otherwise assembles a URL from the
// individual PostgreSQL variables. It returns "" when neither is set.
func databaseURL() string {
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}
	host := os.Getenv("PG_HOST")
	if host == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		os.Getenv("POSTGRES_USER"),
		os.Getenv("POSTGRES_PASSWORD"),
		host,
		getEnv("PG_PORT", "5432"),
		os.Getenv("PG_DATABASE"),
	)
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func getEnvFloat(key string, def float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

// getEnvDuration accepts Go durations ("90s") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second
	}
	return def
}
