// Package config builds service configuration from the environment so main
// stays lean. Weights and thresholds flow into component constructors as
// explicit values; nothing here is process-wide mutable state.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"eligo/internal/eligibility"
	"eligo/internal/linkage"
)

// Config is the full service configuration.
type Config struct {
	Addr          string
	JWTSigningKey string

	// APIClientID and APIClientSecretHash describe the client allowed to
	// exchange its secret for access tokens. The hash is bcrypt; the
	// exchange endpoint is disabled when either is empty.
	APIClientID         string
	APIClientSecretHash string
	// TokenTTL bounds the lifetime of issued access tokens.
	TokenTTL time.Duration

	Linkage  linkage.Config
	Decision eligibility.Config

	// AmbiguityLimit bounds high-confidence matches in fuzzy many-candidate
	// queries before they are rejected as ambiguous.
	AmbiguityLimit int

	// PerceptionURL and RiskURL point at the upstream signal services.
	PerceptionURL string
	RiskURL       string
	SignalTimeout time.Duration

	// PoolSnapshotPath points at a JSON snapshot of candidate records used
	// when no database is configured.
	PoolSnapshotPath string
	// PostgresURL enables the Postgres-backed pool and audit stores.
	PostgresURL string

	Redis RedisConfig

	// KafkaBrokers enables the Kafka audit sink when non-empty.
	KafkaBrokers []string
	// KafkaAuditTopic is the topic audit events are published to.
	KafkaAuditTopic string
}

// RedisConfig controls the optional candidate pool cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	CacheTTL     time.Duration
}

// FromEnv builds a Config from environment variables, with defaults that
// match the documented production thresholds.
func FromEnv() Config {
	linkageCfg := linkage.DefaultConfig()
	linkageCfg.MatchThreshold = envFloat("LINKAGE_CONFIDENCE_THRESHOLD", linkageCfg.MatchThreshold)
	linkageCfg.ReviewMin = envFloat("LINKAGE_MANUAL_REVIEW_MIN", linkageCfg.ReviewMin)
	linkageCfg.ReviewMax = envFloat("LINKAGE_MANUAL_REVIEW_MAX", linkageCfg.ReviewMax)

	decisionCfg := eligibility.DefaultConfig()
	decisionCfg.RiskThreshold = envFloat("RISK_THRESHOLD", decisionCfg.RiskThreshold)
	decisionCfg.MinPerceptionConfidence = envFloat("PERCEPTION_CONFIDENCE_FLOOR", decisionCfg.MinPerceptionConfidence)
	decisionCfg.MinimumAge = envInt("MINIMUM_AGE", decisionCfg.MinimumAge)

	var brokers []string
	if raw := os.Getenv("KAFKA_BROKERS"); raw != "" {
		for _, b := range strings.Split(raw, ",") {
			if b = strings.TrimSpace(b); b != "" {
				brokers = append(brokers, b)
			}
		}
	}

	return Config{
		Addr:                envString("ELIGO_ADDR", ":8080"),
		JWTSigningKey:       envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		APIClientID:         os.Getenv("API_CLIENT_ID"),
		APIClientSecretHash: os.Getenv("API_CLIENT_SECRET_HASH"),
		TokenTTL:            envDuration("TOKEN_TTL", time.Hour),
		Linkage:             linkageCfg,
		Decision:            decisionCfg,
		AmbiguityLimit:      envInt("MATCH_AMBIGUITY_LIMIT", 10),
		PerceptionURL:       envString("PERCEPTION_URL", "http://localhost:8091"),
		RiskURL:             envString("RISK_URL", "http://localhost:8092"),
		SignalTimeout:       envDuration("SIGNAL_TIMEOUT", 30*time.Second),
		PoolSnapshotPath:    envString("POOL_SNAPSHOT_PATH", "data/candidate_records.json"),
		PostgresURL:         os.Getenv("POSTGRES_URL"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			CacheTTL:     envDuration("POOL_CACHE_TTL", 5*time.Minute),
		},
		KafkaBrokers:    brokers,
		KafkaAuditTopic: envString("KAFKA_AUDIT_TOPIC", "eligo.audit"),
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
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
