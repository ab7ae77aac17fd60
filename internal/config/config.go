package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

var (
	ErrMissingRequiredEnv = errors.New("missing required environment variable")
	ErrInvalidJWTSecret   = errors.New("JWT_SECRET must be at least 32 bytes")
	ErrInvalidBackend     = errors.New("unknown storage backend")
)

// Config holds all service configuration loaded from environment variables.
type Config struct {
	Port           string
	RequestTimeout time.Duration

	MongoURI    string
	MongoDB     string
	UserStore   string
	PostgresDSN string

	RedisAddr     string
	RedisPassword string

	JWTSecret string
	TokenTTL  time.Duration

	FeedPageSize   int
	ImageStore     string
	ImageDir       string
	MaxUploadBytes int64

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioUseSSL    bool

	AWSRegion          string
	AWSBucket          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	AllowedOrigins []string

	LogDir   string
	LogLevel string
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	secret, err := mustEnv("JWT_SECRET")
	if err != nil {
		return nil, err
	}
	if len(secret) < 32 {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidJWTSecret, len(secret))
	}

	cfg := &Config{
		Port:           getenv("PORT", "8080"),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", 10*time.Second),

		MongoURI:    getenv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:     getenv("MONGO_DB", "feed"),
		UserStore:   strings.ToLower(getenv("USER_STORE", "mongo")),
		PostgresDSN: getenv("POSTGRES_DSN", ""),

		RedisAddr:     getenv("REDIS_ADDR", ""),
		RedisPassword: getenv("REDIS_PASSWORD", ""),

		JWTSecret: secret,
		TokenTTL:  getDuration("TOKEN_TTL", time.Hour),

		FeedPageSize:   getInt("FEED_PAGE_SIZE", 2),
		ImageStore:     strings.ToLower(getenv("IMAGE_STORE", "disk")),
		ImageDir:       getenv("IMAGE_DIR", "images"),
		MaxUploadBytes: int64(getInt("MAX_UPLOAD_BYTES", 10<<20)),

		MinioEndpoint:  getenv("MINIO_ENDPOINT", "minio:9000"),
		MinioAccessKey: getenv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getenv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getenv("MINIO_BUCKET", "feed-images"),
		MinioUseSSL:    getenv("MINIO_USE_SSL", "false") == "true",

		AWSRegion:          getenv("AWS_REGION", ""),
		AWSBucket:          getenv("AWS_BUCKET_NAME", ""),
		AWSAccessKeyID:     getenv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getenv("AWS_SECRET_ACCESS_KEY", ""),

		AllowedOrigins: splitList(getenv("CORS_ALLOWED_ORIGINS", "*")),

		LogDir:   getenv("LOG_DIR", ""),
		LogLevel: getenv("LOG_LEVEL", "INFO"),
	}

	switch cfg.UserStore {
	case "mongo":
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("%w: POSTGRES_DSN", ErrMissingRequiredEnv)
		}
	default:
		return nil, fmt.Errorf("%w: USER_STORE=%s", ErrInvalidBackend, cfg.UserStore)
	}

	switch cfg.ImageStore {
	case "disk", "minio":
	case "s3":
		if cfg.AWSBucket == "" || cfg.AWSRegion == "" {
			return nil, fmt.Errorf("%w: AWS_BUCKET_NAME and AWS_REGION", ErrMissingRequiredEnv)
		}
	default:
		return nil, fmt.Errorf("%w: IMAGE_STORE=%s", ErrInvalidBackend, cfg.ImageStore)
	}

	if cfg.FeedPageSize < 1 {
		cfg.FeedPageSize = 2
	}

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func mustEnv(key string) (string, error) {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingRequiredEnv, key)
	}
	return v, nil
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
