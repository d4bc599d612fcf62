package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Provider backends.
const (
	ProviderNative  = "native"
	ProviderOpenSSL = "openssl"
)

// Audit backends.
const (
	AuditFile     = "file"
	AuditJSONL    = "jsonl"
	AuditMemory   = "memory"
	AuditPostgres = "postgres"
	AuditRedis    = "redis"
)

// Config captures process level configuration shared by the server and CLI.
type Config struct {
	Addr             string
	PolicyFile       string
	OutputDir        string
	ProviderBackend  string
	OpenSSLBinary    string
	Audit            AuditConfig
	Database         DatabaseConfig
	Redis            RedisConfig
	JWTSigningKey    string
	LogLevel         string
	BatchConcurrency int
}

// AuditConfig selects where audit records go.
type AuditConfig struct {
	Backend string
	Path    string
	Stream  string
}

// DatabaseConfig configures the postgres audit backend.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig configures the redis audit backend.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// FromEnv builds a Config from CERTGATE_* environment variables so main stays
// lean. Unset variables take defaults suitable for a local run.
func FromEnv() (Config, error) {
	cfg := Config{
		Addr:            getEnv("CERTGATE_ADDR", ":8080"),
		PolicyFile:      os.Getenv("CERTGATE_POLICY_FILE"),
		OutputDir:       getEnv("CERTGATE_OUTPUT_DIR", "output"),
		ProviderBackend: strings.ToLower(getEnv("CERTGATE_PROVIDER_BACKEND", ProviderNative)),
		OpenSSLBinary:   getEnv("CERTGATE_OPENSSL_BIN", "openssl"),
		Audit: AuditConfig{
			Backend: strings.ToLower(getEnv("CERTGATE_AUDIT_BACKEND", AuditFile)),
			Path:    getEnv("CERTGATE_AUDIT_PATH", "audit_log.json"),
			Stream:  os.Getenv("CERTGATE_AUDIT_STREAM"),
		},
		Database: DatabaseConfig{
			URL:             os.Getenv("CERTGATE_DATABASE_URL"),
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Redis: RedisConfig{
			URL:          os.Getenv("CERTGATE_REDIS_URL"),
			PoolSize:     10,
			MinIdleConns: 2,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		JWTSigningKey: os.Getenv("CERTGATE_JWT_SIGNING_KEY"),
		LogLevel:      getEnv("CERTGATE_LOG_LEVEL", "info"),
	}

	concurrency, err := getEnvInt("CERTGATE_BATCH_CONCURRENCY", 4)
	if err != nil {
		return Config{}, err
	}
	cfg.BatchConcurrency = concurrency

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first inconsistent setting.
func (c Config) Validate() error {
	switch c.ProviderBackend {
	case ProviderNative, ProviderOpenSSL:
	default:
		return fmt.Errorf("CERTGATE_PROVIDER_BACKEND: unknown backend %q", c.ProviderBackend)
	}
	switch c.Audit.Backend {
	case AuditFile, AuditJSONL:
		if c.Audit.Path == "" {
			return fmt.Errorf("CERTGATE_AUDIT_PATH is required for the %s audit backend", c.Audit.Backend)
		}
	case AuditMemory:
	case AuditPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("CERTGATE_DATABASE_URL is required for the postgres audit backend")
		}
	case AuditRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("CERTGATE_REDIS_URL is required for the redis audit backend")
		}
	default:
		return fmt.Errorf("CERTGATE_AUDIT_BACKEND: unknown backend %q", c.Audit.Backend)
	}
	if c.BatchConcurrency <= 0 {
		return fmt.Errorf("CERTGATE_BATCH_CONCURRENCY must be positive, got %d", c.BatchConcurrency)
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
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
