package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppEnv string
	Port   string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Redis backs both session tokens and job queues
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Sessions
	TokenTTL          time.Duration
	ConnectRateLimit  int // Credential checks allowed per IP per window
	ConnectRateWindow time.Duration

	// HTTP
	UploadMaxBytes    int64
	TrustProxyHeaders bool // Key clients by X-Forwarded-For when behind a trusted proxy

	// Storage ("local" writes under FolderPath, "s3" uses the bucket below)
	StorageDriver string
	FolderPath    string

	S3Region    string
	S3Bucket    string
	S3AccessKey string
	S3SecretKey string
	S3Endpoint  string // Optional: for S3-compatible services (MinIO, DO Spaces, R2, etc.)

	// Queue
	QueueMaxAttempts  int
	QueueBackoffBase  time.Duration
	QueueBackoffMax   time.Duration
	QueuePollInterval time.Duration
	WorkerConcurrency int
	WorkerEmbedded    bool // Run the queue consumers inside the API process

	// Thumbnails
	ThumbnailWidths []int

	// Observability (optional)
	SentryDSN string
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppEnv: envString("APP_ENV", "development"),
		Port:   envString("PORT", "5000"),

		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/files_manager.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		RedisAddr:     envString("REDIS_ADDR", "localhost:6379"),
		RedisPassword: envString("REDIS_PASSWORD", ""),
		RedisDB:       envInt("REDIS_DB", 0),

		TokenTTL:          envDuration("TOKEN_TTL", 24*time.Hour),
		ConnectRateLimit:  envInt("CONNECT_RATE_LIMIT", 10),
		ConnectRateWindow: envDuration("CONNECT_RATE_WINDOW", time.Minute),

		UploadMaxBytes:    int64(envInt("UPLOAD_MAX_BYTES", 32<<20)),
		TrustProxyHeaders: envBool("TRUST_PROXY_HEADERS", false),

		StorageDriver: envString("STORAGE_DRIVER", "local"),
		FolderPath:    envString("FOLDER_PATH", "/tmp/files_manager"),

		S3Region:    envString("S3_REGION", "us-east-1"),
		S3Bucket:    envString("S3_BUCKET", "files-manager"),
		S3AccessKey: envString("S3_ACCESS_KEY", ""),
		S3SecretKey: envString("S3_SECRET_KEY", ""),
		S3Endpoint:  envString("S3_ENDPOINT", ""),

		QueueMaxAttempts:  envInt("QUEUE_MAX_ATTEMPTS", 5),
		QueueBackoffBase:  envDuration("QUEUE_BACKOFF_BASE", 2*time.Second),
		QueueBackoffMax:   envDuration("QUEUE_BACKOFF_MAX", 5*time.Minute),
		QueuePollInterval: envDuration("QUEUE_POLL_INTERVAL", 500*time.Millisecond),
		WorkerConcurrency: envInt("WORKER_CONCURRENCY", 4),
		WorkerEmbedded:    envBool("WORKER_EMBEDDED", false),

		ThumbnailWidths: []int{500, 250, 100},

		SentryDSN: envString("SENTRY_DSN", ""),
	}

	if cfg.StorageDriver == "s3" {
		validateS3(cfg)
	}

	return cfg
}

// validateS3 ensures credentials are present when the s3 driver is selected.
func validateS3(cfg *Config) {
	if cfg.S3AccessKey == "" || cfg.S3SecretKey == "" {
		slog.Error("s3 storage requires S3_ACCESS_KEY and S3_SECRET_KEY",
			"hint", "set STORAGE_DRIVER=local to store content on disk")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
