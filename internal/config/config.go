package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port string
	Env  string

	// Database
	DatabaseURL string

	// Redis
	RedisURL string

	// JWT (WebSocket auth)
	JWTSecret string

	// Gemini AI
	GeminiAPIKey        string
	GeminiModel         string
	GeminiEmbedModel    string
	ModelConnectTimeout time.Duration
	ModelReadTimeout    time.Duration

	// Conversation
	ContextWindow  int
	SummarizeAfter int
	SummaryWorkers int

	// Knowledge base retrieval
	KBMaxResults int

	// Artifact storage
	StorageType    string // "local" or "supabase"
	StoragePath    string
	SupabaseURL    string
	SupabaseKey    string
	SupabaseBucket string

	// Frontend
	FrontendURL string
}

func Load() *Config {
	// Load .env file if it exists
	godotenv.Load()

	cfg := &Config{
		Port:        getEnvOrDefault("PORT", "8080"),
		Env:         getEnvOrDefault("ENV", "development"),
		DatabaseURL: mustGetEnv("DATABASE_URL"),
		RedisURL:    mustGetEnv("REDIS_URL"),
		JWTSecret:   mustGetEnv("JWT_SECRET"),

		GeminiAPIKey:        mustGetEnv("GEMINI_API_KEY"),
		GeminiModel:         getEnvOrDefault("GEMINI_MODEL", "gemini-3-flash-preview"),
		GeminiEmbedModel:    getEnvOrDefault("GEMINI_EMBED_MODEL", "text-embedding-004"),
		ModelConnectTimeout: getEnvAsDurationOrDefault("MODEL_CONNECT_TIMEOUT", 5*time.Second),
		ModelReadTimeout:    getEnvAsDurationOrDefault("MODEL_READ_TIMEOUT", 120*time.Second),

		ContextWindow:  getEnvAsIntOrDefault("CONTEXT_WINDOW", 8),
		SummarizeAfter: getEnvAsIntOrDefault("SUMMARIZE_AFTER_MESSAGES", 12),
		SummaryWorkers: getEnvAsIntOrDefault("SUMMARY_WORKERS", 2),

		KBMaxResults: getEnvAsIntOrDefault("KB_MAX_RESULTS", 5),

		StorageType:    getEnvOrDefault("STORAGE_TYPE", "local"),
		StoragePath:    getEnvOrDefault("STORAGE_PATH", "./uploads"),
		SupabaseURL:    getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:    getEnvOrDefault("SUPABASE_SERVICE_KEY", ""),
		SupabaseBucket: getEnvOrDefault("SUPABASE_BUCKET", "artifacts"),

		FrontendURL: getEnvOrDefault("FRONTEND_URL", "http://localhost:5173"),
	}

	return cfg
}

func mustGetEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return val
}

func getEnvOrDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func getEnvAsIntOrDefault(key string, defaultVal int) int {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

func getEnvAsDurationOrDefault(key string, defaultVal time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return defaultVal
	}
	return d
}
