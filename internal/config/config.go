package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Providers ProviderConfig
	Pipeline  PipelineConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	RateLimitRPS   int
	RateLimitBurst int
}

type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret string
}

type ProviderConfig struct {
	OpenAIKey      string
	OpenAIBaseURL  string
	OllamaURL      string
	RequestTimeout time.Duration
}

type PipelineConfig struct {
	GenerateInterval    time.Duration
	CheckStatusInterval time.Duration
	DirectMaxBatchSize  int
	BatchMaxBatchSize   int
	LockTTL             time.Duration
	ReconcileMaxAge     time.Duration
}

func Load() (*Config, error) {
	port, err := getEnvInt("SERVER_PORT", 8080)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	maxConns, err := getEnvInt("DB_MAX_CONNS", 20)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS: %w", err)
	}

	minConns, err := getEnvInt("DB_MIN_CONNS", 5)
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MIN_CONNS: %w", err)
	}

	rateRPS, err := getEnvInt("RATE_LIMIT_RPS", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	rateBurst, err := getEnvInt("RATE_LIMIT_BURST", 200)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	redisDB, err := getEnvInt("REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	directBatch, err := getEnvInt("PIPELINE_DIRECT_MAX_BATCH", 100)
	if err != nil {
		return nil, fmt.Errorf("invalid PIPELINE_DIRECT_MAX_BATCH: %w", err)
	}

	batchBatch, err := getEnvInt("PIPELINE_BATCH_MAX_BATCH", 500)
	if err != nil {
		return nil, fmt.Errorf("invalid PIPELINE_BATCH_MAX_BATCH: %w", err)
	}

	generateInterval, err := getEnvDuration("PIPELINE_GENERATE_INTERVAL", 3*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid PIPELINE_GENERATE_INTERVAL: %w", err)
	}

	checkInterval, err := getEnvDuration("PIPELINE_CHECK_STATUS_INTERVAL", 5*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid PIPELINE_CHECK_STATUS_INTERVAL: %w", err)
	}

	lockTTL, err := getEnvDuration("PIPELINE_LOCK_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("invalid PIPELINE_LOCK_TTL: %w", err)
	}

	maxAge, err := getEnvDuration("PIPELINE_RECONCILE_MAX_AGE", 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("invalid PIPELINE_RECONCILE_MAX_AGE: %w", err)
	}

	requestTimeout, err := getEnvDuration("PROVIDER_REQUEST_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid PROVIDER_REQUEST_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           port,
			AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
			RateLimitRPS:   rateRPS,
			RateLimitBurst: rateBurst,
		},
		Database: DatabaseConfig{
			URL:      getEnv("DATABASE_URL", ""),
			MaxConns: maxConns,
			MinConns: minConns,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       redisDB,
		},
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
		},
		Providers: ProviderConfig{
			OpenAIKey:      getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:  getEnv("OPENAI_BASE_URL", ""),
			OllamaURL:      getEnv("OLLAMA_URL", ""),
			RequestTimeout: requestTimeout,
		},
		Pipeline: PipelineConfig{
			GenerateInterval:    generateInterval,
			CheckStatusInterval: checkInterval,
			DirectMaxBatchSize:  directBatch,
			BatchMaxBatchSize:   batchBatch,
			LockTTL:             lockTTL,
			ReconcileMaxAge:     maxAge,
		},
	}

	return cfg, nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func (c *Config) Validate() error {
	var missing []string
	if c.Database.URL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if c.Auth.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required env vars: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return strconv.Atoi(v)
}

func getEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	return time.ParseDuration(v)
}
