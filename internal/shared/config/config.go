package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	Port            string
	CORSAllowOrigin []string
	Env             string
	LogLevel        string
	LogFormat       string

	SessionStore  string
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration
	SQLitePath    string
	SaveTimeout   time.Duration

	// SessionIdleTTL bounds how long an untouched session stays in memory.
	SessionIdleTTL time.Duration

	ObjectStoreType string
	LocalStoreDir   string
	AWSRegion       string
	S3Bucket        string
	S3Prefix        string
	SSEKMSKeyID     string

	LLMProvider  string
	LLMModel     string
	OpenAIAPIKey string
	GeminiAPIKey string
	LLMTimeout   time.Duration

	GenerateRate  float64
	GenerateBurst int

	SessionStartRate  float64
	SessionStartBurst int
}

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	// Best-effort load of local env files for dev convenience; real env wins.
	_ = godotenv.Load(".env")
	_ = godotenv.Load("cmd/.env")

	env := normalizeEnv(getEnv("ENV", "dev"))
	dbURL := os.Getenv("DATABASE_URL")
	store := normalizeSessionStore(getEnv("SESSION_STORE", ""), dbURL)

	if env == "production" && store == "memory" {
		log.Printf("SESSION_STORE=memory in production; sessions will not survive restarts")
	}

	logFormat := "console"
	if env != "dev" && env != "local" {
		logFormat = "json"
	}

	return Config{
		Port:            getEnv("PORT", "8080"),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")),
		Env:             env,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", logFormat),

		SessionStore:  store,
		DatabaseURL:   dbURL,
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		SessionTTL:    getEnvDuration("SESSION_TTL", 30*24*time.Hour),
		SQLitePath:    getEnv("SQLITE_PATH", "./resumeBuilder.db"),
		SaveTimeout:   getEnvDuration("SAVE_TIMEOUT", 5*time.Second),

		SessionIdleTTL: getEnvDuration("SESSION_IDLE_TTL", 2*time.Hour),

		ObjectStoreType: normalizeStoreType(getEnv("OBJECT_STORE", "local")),
		LocalStoreDir:   getEnv("LOCAL_STORE_DIR", "./data"),
		AWSRegion:       getEnv("AWS_REGION", ""),
		S3Bucket:        getEnv("S3_BUCKET", ""),
		S3Prefix:        getEnv("S3_PREFIX", ""),
		SSEKMSKeyID:     getEnv("SSE_KMS_KEY_ID", ""),

		LLMProvider:  normalizeProvider(getEnv("LLM_PROVIDER", "openai")),
		LLMModel:     getEnv("LLM_MODEL", ""),
		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		LLMTimeout:   getEnvDuration("LLM_TIMEOUT", 120*time.Second),

		GenerateRate:  getEnvFloat("GENERATE_RATE", 0.2),
		GenerateBurst: getEnvInt("GENERATE_BURST", 3),

		SessionStartRate:  getEnvFloat("SESSION_START_RATE", 0.5),
		SessionStartBurst: getEnvInt("SESSION_START_BURST", 10),
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config %s invalid int: %v", key, err)
		return def
	}
	return val
}

func getEnvFloat(key string, def float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config %s invalid float: %v", key, err)
		return def
	}
	return val
}

// getEnvDuration accepts Go durations ("90s") or bare seconds ("90").
func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	val, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config %s invalid duration: %v", key, err)
		return def
	}
	return val
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}

func normalizeStoreType(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "s3":
		return "s3"
	default:
		return "local"
	}
}

// normalizeSessionStore defaults to postgres when a database URL is present.
func normalizeSessionStore(raw, dbURL string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "postgres", "pg":
		return "postgres"
	case "redis":
		return "redis"
	case "sqlite":
		return "sqlite"
	case "object":
		return "object"
	case "memory":
		return "memory"
	}
	if strings.TrimSpace(dbURL) != "" {
		return "postgres"
	}
	return "memory"
}

func normalizeProvider(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "gemini", "google":
		return "gemini"
	case "none", "placeholder", "":
		return "none"
	default:
		return "openai"
	}
}
