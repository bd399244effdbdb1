package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

type HTTPConfig struct {
	Addr string
}

type S3Config struct {
	Bucket string
	Region string
	// AssetBaseURL is the public prefix under which uploaded objects are
	// reachable, without a trailing slash.
	AssetBaseURL string
}

type AniListConfig struct {
	URL string
	// RequestInterval spaces outbound catalog queries; AniList allows
	// roughly 90 requests per minute per client.
	RequestInterval time.Duration
}

type ImageConfig struct {
	Workers    int
	QueueDepth int
}

type AppConfig struct {
	ServiceName string
	LogLevel    string
	HTTP        HTTPConfig
	DatabaseURL string
	RedisURL    string // optional; empty disables the read cache
	NATSURL     string // optional; empty disables event publishing
	CacheTTL    time.Duration
	AniList     AniListConfig
	S3          S3Config
	Images      ImageConfig
}

func Load() (AppConfig, error) {
	cfg := AppConfig{
		ServiceName: strings.TrimSpace(os.Getenv("SERVICE_NAME")),
		LogLevel:    strings.TrimSpace(os.Getenv("LOG_LEVEL")),
		HTTP: HTTPConfig{
			Addr: strings.TrimSpace(os.Getenv("HTTP_ADDR")),
		},
		DatabaseURL: strings.TrimSpace(os.Getenv("DATABASE_URL")),
		RedisURL:    strings.TrimSpace(os.Getenv("REDIS_URL")),
		NATSURL:     strings.TrimSpace(os.Getenv("NATS_URL")),
		CacheTTL:    envDuration("LIST_CACHE_TTL", time.Minute),
		AniList: AniListConfig{
			URL:             strings.TrimSpace(os.Getenv("ANILIST_URL")),
			RequestInterval: envDuration("ANILIST_REQUEST_INTERVAL", 700*time.Millisecond),
		},
		S3: S3Config{
			Bucket:       strings.TrimSpace(os.Getenv("S3_BUCKET")),
			Region:       strings.TrimSpace(os.Getenv("S3_REGION")),
			AssetBaseURL: strings.TrimSpace(os.Getenv("S3_PUBLIC_BASE_URL")),
		},
		Images: ImageConfig{
			Workers:    envInt("IMAGE_WORKERS", 4),
			QueueDepth: envInt("IMAGE_QUEUE_DEPTH", 256),
		},
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = "anihistory"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.DatabaseURL == "" {
		return AppConfig{}, errors.New("DATABASE_URL is required")
	}
	if cfg.AniList.URL == "" {
		cfg.AniList.URL = "https://graphql.anilist.co"
	}
	if cfg.S3.Bucket == "" {
		cfg.S3.Bucket = "anihistory-images"
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}
	if cfg.S3.AssetBaseURL == "" {
		cfg.S3.AssetBaseURL = "https://s3.amazonaws.com/" + cfg.S3.Bucket
	}
	cfg.S3.AssetBaseURL = strings.TrimRight(cfg.S3.AssetBaseURL, "/")
	return cfg, nil
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}
