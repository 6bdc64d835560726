package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
	PublicURL  string
	// Endpoint overrides the R2 account endpoint, for any S3-compatible store.
	Endpoint string
}

type OAuthProvider struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

type Log struct {
	Level  string
	Format string
}

type Config struct {
	AppName string
	AppEnv  string
	AppURL  string

	HTTPAddr    string
	PostgresURI string
	RedisURI    string
	SecretKey   string

	R2  R2
	Log Log

	RateLimitRPS   float64
	RateLimitBurst int

	IdempotencyTTL            time.Duration
	TrashRetention            time.Duration
	RetryResetsScheduleStatus bool
	MaxUploadSizeMB           int
	StoragePath               string

	Twitter        OAuthProvider
	Facebook       OAuthProvider
	Mastodon       OAuthProvider
	MastodonServer string
}

func LoadConfig() *Config {
	return &Config{
		AppName:     getEnv("APP_NAME", "Mixpost"),
		AppEnv:      getEnv("APP_ENV", "production"),
		AppURL:      strings.TrimRight(getEnv("APP_URL", "http://localhost:3000"), "/"),
		HTTPAddr:    getEnv("HTTP_ADDR", ":3000"),
		PostgresURI: getEnv("POSTGRES_URI", ""),
		RedisURI:    getEnv("REDIS_URI", "127.0.0.1:6379"),
		SecretKey:   getEnv("SECRET_KEY", ""),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
			PublicURL:  strings.TrimRight(getEnv("R2_PUBLIC_URL", ""), "/"),
			Endpoint:   getEnv("R2_ENDPOINT", ""),
		},
		Log: Log{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "console"),
		},
		RateLimitRPS:              getEnvFloat("RATE_LIMIT_RPS", 10),
		RateLimitBurst:            getEnvInt("RATE_LIMIT_BURST", 20),
		IdempotencyTTL:            getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
		TrashRetention:            getEnvDuration("TRASH_RETENTION", 720*time.Hour),
		RetryResetsScheduleStatus: getEnvBool("RETRY_RESETS_SCHEDULE_STATUS", true),
		MaxUploadSizeMB:           getEnvInt("MAX_UPLOAD_SIZE_MB", 200),
		StoragePath:               getEnv("STORAGE_PATH", os.TempDir()),
		Twitter: OAuthProvider{
			ClientID:     getEnv("TWITTER_CLIENT_ID", ""),
			ClientSecret: getEnv("TWITTER_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("TWITTER_REDIRECT_URI", ""),
		},
		Facebook: OAuthProvider{
			ClientID:     getEnv("FACEBOOK_CLIENT_ID", ""),
			ClientSecret: getEnv("FACEBOOK_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("FACEBOOK_REDIRECT_URI", ""),
		},
		Mastodon: OAuthProvider{
			ClientID:     getEnv("MASTODON_CLIENT_ID", ""),
			ClientSecret: getEnv("MASTODON_CLIENT_SECRET", ""),
			RedirectURI:  getEnv("MASTODON_REDIRECT_URI", ""),
		},
		MastodonServer: strings.TrimRight(getEnv("MASTODON_SERVER", "https://mastodon.social"), "/"),
	}
}

// MaxUploadBytes is the upload and external download cap.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadSizeMB) * 1024 * 1024
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
