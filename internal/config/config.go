package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Log struct {
		Level     string
		Format    string
		Component string
		Source    bool
	}

	DB struct {
		DSN      string
		Host     string
		Port     string
		User     string
		Password string
		Name     string
	}

	Redis struct {
		Addr     string
		Password string
		DB       int
	}

	HTTP struct {
		Host string
		Port string
	}

	Matching struct {
		// VectorDim is the fixed length of taste vectors.
		VectorDim int
		// CandidateMultiplier controls overfetch for vector search:
		// limit * CandidateMultiplier candidates are pulled before scoring.
		CandidateMultiplier int
		// DiscoverPageSize is the default discovery page size, DiscoverPageCap the maximum.
		DiscoverPageSize int
		DiscoverPageCap  int
		// VectorTimeout bounds vector-search and embedding lookups. On expiry
		// discovery falls back to overlap-only scoring.
		VectorTimeout time.Duration
		// ScoreCacheTTL is the lifetime of cached pair scores in Redis.
		ScoreCacheTTL time.Duration
	}
}

func New() *Config {
	cfg := &Config{}

	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", "info")
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", "text")
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", "match_engine")
	cfg.Log.Source = isTruthy(os.Getenv("LOG_SOURCE"))

	// Database
	cfg.DB.DSN = os.Getenv("MYSQL_DSN")
	if cfg.DB.DSN == "" {
		cfg.DB.Host = getEnvDefault("DB_HOST", "localhost")
		cfg.DB.Port = getEnvDefault("DB_PORT", "3306")
		cfg.DB.User = getEnvDefault("DB_USER", "root")
		cfg.DB.Password = getEnvDefault("DB_PASSWORD", "root")
		cfg.DB.Name = getEnvDefault("DB_NAME", "culturematch")

		cfg.DB.DSN = fmt.Sprintf(
			"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
			cfg.DB.User, cfg.DB.Password, cfg.DB.Host, cfg.DB.Port, cfg.DB.Name,
		)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", "")
	if dbStr := getEnvDefault("REDIS_DB", "0"); dbStr != "" {
		if dbInt, err := strconv.Atoi(dbStr); err == nil {
			cfg.Redis.DB = dbInt
		}
	}

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", "0.0.0.0")
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", "8080")

	// Matching
	cfg.Matching.VectorDim = getEnvInt("MATCH_VECTOR_DIM", 384)
	cfg.Matching.CandidateMultiplier = getEnvInt("MATCH_CANDIDATE_MULTIPLIER", 3)
	cfg.Matching.DiscoverPageSize = getEnvInt("MATCH_DISCOVER_PAGE_SIZE", 10)
	cfg.Matching.DiscoverPageCap = getEnvInt("MATCH_DISCOVER_PAGE_CAP", 20)
	cfg.Matching.VectorTimeout = getEnvDuration("MATCH_VECTOR_TIMEOUT", 2*time.Second)
	cfg.Matching.ScoreCacheTTL = getEnvDuration("MATCH_SCORE_CACHE_TTL", time.Hour)

	return cfg
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
