// Package config builds runtime configuration from environment variables so
// main stays lean. Every external resource (Postgres, Redis, Kafka, the
// identity provider, the pass generator) is optional in development; wiring
// falls back to in-memory implementations when a URL is empty.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server needs at startup.
type Config struct {
	Addr string

	// CanonicalOrigin is the public origin of the platform. Claim links and
	// wallet destinations are rewritten onto this origin regardless of what a
	// project template says.
	CanonicalOrigin string

	DatabaseURL string
	Redis       RedisConfig
	Kafka       KafkaConfig

	JWT   JWTConfig
	OAuth OAuthConfig

	// PassGeneratorURL is the remote function that renders wallet files.
	// Binary pass generation is delegated, never performed in-process.
	PassGeneratorURL string

	// VisitWindow is how long a pass accumulates points before it expires
	// and the counter resets on the next scan.
	VisitWindow time.Duration

	// ScanRatePerMinute bounds scanner-visit calls per client IP.
	ScanRatePerMinute int
}

// RedisConfig mirrors the go-redis options we care about.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig configures the domain event publisher.
type KafkaConfig struct {
	Brokers     []string
	ClientID    string
	NumReplicas int
}

// JWTConfig configures session access tokens.
type JWTConfig struct {
	SigningKey string
	Issuer     string
	Audience   string
	AccessTTL  time.Duration
}

// OAuthConfig configures the external identity provider redirect.
type OAuthConfig struct {
	AuthorizeURL string
	Provider     string
	Scopes       string
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:              envOr("CARTERA_ADDR", ":8080"),
		CanonicalOrigin:   envOr("CARTERA_ORIGIN", "http://localhost:8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		PassGeneratorURL:  os.Getenv("PASS_GENERATOR_URL"),
		VisitWindow:       envDuration("VISIT_WINDOW", 90*24*time.Hour),
		ScanRatePerMinute: envInt("SCAN_RATE_PER_MINUTE", 60),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:     splitNonEmpty(os.Getenv("KAFKA_BROKERS")),
			ClientID:    envOr("KAFKA_CLIENT_ID", "cartera-server"),
			NumReplicas: envInt("KAFKA_NUM_REPLICAS", 1),
		},
		JWT: JWTConfig{
			SigningKey: envOr("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:     envOr("JWT_ISSUER", "cartera"),
			Audience:   envOr("JWT_AUDIENCE", "cartera-api"),
			AccessTTL:  envDuration("JWT_ACCESS_TTL", time.Hour),
		},
		OAuth: OAuthConfig{
			AuthorizeURL: envOr("OAUTH_AUTHORIZE_URL", "https://accounts.google.com/o/oauth2/v2/auth"),
			Provider:     envOr("OAUTH_PROVIDER", "google"),
			Scopes:       envOr("OAUTH_SCOPES", "openid profile email"),
		},
	}
	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
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

func splitNonEmpty(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
