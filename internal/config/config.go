// Package config reads process configuration from the environment.
package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServiceName string
	Port        string

	DB   DBConfig
	NATS NATSConfig

	JWTSecret            string
	InternalSharedSecret string

	RateLimitMax        int
	RateLimitExpiration time.Duration

	CategoriesCacheTTL time.Duration

	S3   S3Config
	APNS APNSConfig

	OTLPEndpoint string
}

type DBConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
}

// URL is the pgx connection string for the configured database.
func (c DBConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.User, c.Password, c.Host, c.Port, c.Name,
	)
}

type NATSConfig struct {
	URL            string
	AuditRetries   int
	AuditRetryWait time.Duration
}

type S3Config struct {
	Endpoint     string
	Region       string
	Bucket       string
	AccessKey    string
	SecretKey    string
	UsePathStyle bool
}

type APNSConfig struct {
	AuthKeyPath string
	KeyID       string
	TeamID      string
	Topic       string
	Production  bool
}

// Enabled is false when credentials are missing; the notifier then runs in
// mock mode.
func (c APNSConfig) Enabled() bool {
	return c.AuthKeyPath != "" && c.AuthKeyPath[0] != '#' && c.KeyID != "" && c.TeamID != ""
}

// Load reads .env.dev when present and then the process environment.
func Load() *Config {
	if err := godotenv.Load(".env.dev"); err != nil {
		log.Println("No .env.dev file found, reading from environment variables")
	}

	return &Config{
		ServiceName: getEnv("SERVICE_NAME", "skill-marketplace"),
		Port:        getEnv("APP_PORT", "8001"),
		DB: DBConfig{
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			Name:     getEnv("DB_NAME", "skill_marketplace"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", "nats://localhost:4222"),
			AuditRetries:   getEnvInt("AUDIT_MAX_RETRIES", 3),
			AuditRetryWait: getEnvDuration("AUDIT_RETRY_DELAY", 2*time.Second),
		},
		JWTSecret:            os.Getenv("JWT_SECRET"),
		InternalSharedSecret: os.Getenv("INTERNAL_SHARED_SECRET"),
		RateLimitMax:         getEnvInt("RATE_LIMIT_MAX", 100),
		RateLimitExpiration:  time.Duration(getEnvInt("RATE_LIMIT_EXPIRATION", 60)) * time.Second,
		CategoriesCacheTTL:   getEnvDuration("CATEGORIES_CACHE_TTL", 10*time.Minute),
		S3: S3Config{
			Endpoint:     os.Getenv("S3_ENDPOINT"),
			Region:       getEnv("AWS_REGION", "us-east-1"),
			Bucket:       os.Getenv("S3_BUCKET_NAME"),
			AccessKey:    os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey:    os.Getenv("AWS_SECRET_ACCESS_KEY"),
			UsePathStyle: os.Getenv("S3_USE_PATH_STYLE") == "true",
		},
		APNS: APNSConfig{
			AuthKeyPath: os.Getenv("APNS_AUTH_KEY_PATH"),
			KeyID:       os.Getenv("APNS_KEY_ID"),
			TeamID:      os.Getenv("APNS_TEAM_ID"),
			Topic:       os.Getenv("APNS_TOPIC"),
			Production:  os.Getenv("APNS_MODE") == "production",
		},
		OTLPEndpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "jaeger:4317"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// getEnvDuration accepts Go duration strings ("90s") or plain seconds.
func getEnvDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
