package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the client's process configuration, sourced from the
// environment. The backend owns all user-facing settings (proxy, providers);
// nothing here overlaps with the /settings snapshot.
type Config struct {
	BackendURL      string
	UIAddr          string
	RequestTimeout  time.Duration
	LogLevel        string
	LogFormat       string
	UserAgent       string
	RedisURL        string
	CacheTTL        time.Duration
	CacheDisabled   bool
	SearchPageSize  int
	SearchPerMinute int
}

func LoadConfig() Config {
	return Config{
		BackendURL:      strings.TrimRight(getEnv("BACKEND_URL", "http://localhost:3347"), "/"),
		UIAddr:          getEnv("UI_ADDR", ":8099"),
		RequestTimeout:  time.Duration(getEnvInt("REQUEST_TIMEOUT_SECONDS", 0)) * time.Second,
		LogLevel:        strings.ToLower(getEnv("LOG_LEVEL", "info")),
		LogFormat:       strings.ToLower(getEnv("LOG_FORMAT", "text")),
		UserAgent:       getEnv("USER_AGENT", "torrent-stream-webclient/1.0"),
		RedisURL:        getEnv("REDIS_URL", ""),
		CacheTTL:        time.Duration(getEnvInt("SEARCH_CACHE_TTL_MINUTES", 10)) * time.Minute,
		CacheDisabled:   getEnvBool("SEARCH_CACHE_DISABLED", false),
		SearchPageSize:  getEnvInt("SEARCH_PAGE_SIZE", 5),
		SearchPerMinute: getEnvInt("SEARCH_RATE_PER_MINUTE", 30),
	}
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}
