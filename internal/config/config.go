package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port     string
	Env      string
	LogLevel string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// CORS
	CORSAllowedOrigins []string

	// Model registry
	ModelsConfigPath string

	// LLM dispatch
	LLMConnectTimeout   time.Duration
	LLMReadTimeout      time.Duration
	LLMWriteTimeout     time.Duration
	LLMPoolTimeout      time.Duration
	LLMRetryAttempts    int
	LLMRetryBackoffBase time.Duration

	// Battles
	MaxUserMessages int

	// Leaderboard
	MinLeaderboardVotes int

	// ELO
	InitialELO int
	KFactor    int

	// Aggregation worker
	AggregationInterval time.Duration
	AggregatorEnabled   bool

	// Rate limiting
	PromptRateLimit  int
	PromptRateWindow time.Duration
}

func Load() (*Config, error) {
	// Load .env if present
	_ = godotenv.Load()

	cfg := &Config{
		Port:                getEnv("PORT", "8080"),
		Env:                 getEnv("ENV", "development"),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DatabaseURL:         getEnv("DATABASE_URL", ""),
		RedisURL:            getEnv("REDIS_URL", "redis://localhost:6379"),
		CORSAllowedOrigins:  parseList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000")),
		ModelsConfigPath:    getEnv("MODELS_CONFIG_PATH", "config/models.yaml"),
		LLMConnectTimeout:   parseDuration(getEnv("LLM_CONNECT_TIMEOUT", "5s"), 5*time.Second),
		LLMReadTimeout:      parseDuration(getEnv("LLM_READ_TIMEOUT", "30s"), 30*time.Second),
		LLMWriteTimeout:     parseDuration(getEnv("LLM_WRITE_TIMEOUT", "5s"), 5*time.Second),
		LLMPoolTimeout:      parseDuration(getEnv("LLM_POOL_TIMEOUT", "5s"), 5*time.Second),
		LLMRetryAttempts:    parseInt(getEnv("LLM_RETRY_ATTEMPTS", "3"), 3),
		LLMRetryBackoffBase: parseDuration(getEnv("LLM_RETRY_BACKOFF_BASE", "1s"), time.Second),
		MaxUserMessages:     parseInt(getEnv("MAX_USER_MESSAGES", "6"), 6),
		MinLeaderboardVotes: parseInt(getEnv("MIN_LEADERBOARD_VOTES", "5"), 5),
		InitialELO:          parseInt(getEnv("INITIAL_ELO", "1500"), 1500),
		KFactor:             parseInt(getEnv("ELO_K_FACTOR", "32"), 32),
		AggregationInterval: parseDuration(getEnv("AGGREGATION_INTERVAL", "1h"), time.Hour),
		AggregatorEnabled:   parseBool(getEnv("AGGREGATOR_ENABLED", "true"), true),
		PromptRateLimit:     parseInt(getEnv("PROMPT_RATE_LIMIT", "30"), 30),
		PromptRateWindow:    parseDuration(getEnv("PROMPT_RATE_WINDOW", "1m"), time.Minute),
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseDuration(s string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultValue
	}
	return d
}

func parseInt(s string, defaultValue int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return n
}

func parseBool(s string, defaultValue bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return defaultValue
	}
	return b
}

func parseList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
