package service

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config carries all runtime settings, loaded from the environment with an
// optional .env file.
type Config struct {
	Port string

	// Redis member store. An empty addr selects the in-memory store, for
	// development and tests.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// AppID namespaces all store keys for this deployment.
	AppID string

	JWTSecret     string
	TokenDuration time.Duration

	// DBPath is the sqlite file holding user accounts.
	DBPath string

	UploadDir     string
	MaxUploadSize int64

	// LoadTimeout bounds the wait for the first realtime snapshot.
	LoadTimeout time.Duration
}

// LoadConfig reads configuration from the environment.
func LoadConfig() *Config {
	// A missing .env file is fine; plain env vars still apply.
	_ = godotenv.Load()

	return &Config{
		Port:          envOr("PORT", "8080"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),
		AppID:         envOr("APP_ID", "default-family-tree-app"),
		JWTSecret:     envOr("JWT_SECRET", "dev-secret"),
		TokenDuration: envDuration("TOKEN_DURATION", 24*time.Hour),
		DBPath:        envOr("DB_PATH", "familytree.db"),
		UploadDir:     envOr("UPLOAD_DIR", "uploads"),
		MaxUploadSize: int64(envInt("MAX_UPLOAD_SIZE", 5<<20)),
		LoadTimeout:   envDuration("LOAD_TIMEOUT", 15*time.Second),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
