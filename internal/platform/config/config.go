package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures process-level configuration so main stays lean. Values come
// from environment variables with development defaults; production deployments
// must override the signing key and database URL.
type Config struct {
	Addr          string
	DatabaseURL   string
	JWTSigningKey string

	// BootstrapSecret guards the faculty token endpoint. Empty disables the
	// endpoint entirely.
	BootstrapSecret string

	Redis    RedisConfig
	Batch    BatchConfig
	Dir      DirectoryConfig
	Verifier VerifierConfig
	Audit    AuditConfig
	Onest    OnestConfig

	// KeyStorePath is the file fallback for the issuer key when Redis is not
	// configured.
	KeyStorePath string

	IssuerName string
}

// RedisConfig controls the optional Redis connection used for issuer key
// persistence.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// BatchConfig bounds chunked batch processing.
type BatchConfig struct {
	ChunkSize   int
	MaxParallel int
}

// DirectoryConfig points at the academic records API.
type DirectoryConfig struct {
	BaseURL string
	Timeout time.Duration
}

// VerifierConfig points at the optional external reference verifier.
type VerifierConfig struct {
	URL     string
	Timeout time.Duration
}

// AuditConfig controls the Kafka issuance-audit publisher. Empty brokers
// disable Kafka; events still flow to the local worker.
type AuditConfig struct {
	Brokers []string
	Topic   string
}

// OnestConfig identifies this subscriber on the ONEST network. Callbacks are
// disabled when SubscriberID is empty.
type OnestConfig struct {
	SubscriberID string
	UniqueKeyID  string
	ProviderID   string
	// PrivateKeyHex is the raw Ed25519 seed, hex encoded.
	PrivateKeyHex string
	Timeout       time.Duration
	MaxRetries    int
	RetryBackoff  time.Duration
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	cfg := Config{
		Addr:            getenv("UNICRED_ADDR", ":8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		JWTSigningKey:   getenv("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		BootstrapSecret: os.Getenv("ADMIN_BOOTSTRAP_SECRET"),
		KeyStorePath:    getenv("ISSUER_KEY_PATH", "instance/issuer_key.json"),
		IssuerName:      getenv("ISSUER_NAME", "KLE Technological University"),
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getint("REDIS_POOL_SIZE", 10),
			MinIdleConns: getint("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getdur("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getdur("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getdur("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Batch: BatchConfig{
			ChunkSize:   getint("BATCH_CHUNK_SIZE", 20),
			MaxParallel: getint("BATCH_MAX_PARALLEL", 4),
		},
		Dir: DirectoryConfig{
			BaseURL: getenv("CONTINEO_API_URL", "https://mock-contineo-app.onrender.com/api"),
			Timeout: getdur("CONTINEO_TIMEOUT", 10*time.Second),
		},
		Verifier: VerifierConfig{
			URL:     getenv("EXTERNAL_VERIFIER_URL", "https://univerifier.io/1.0/verify"),
			Timeout: getdur("EXTERNAL_VERIFIER_TIMEOUT", 10*time.Second),
		},
		Audit: AuditConfig{
			Topic: getenv("AUDIT_TOPIC", "unicred.issuance.audit"),
		},
		Onest: OnestConfig{
			SubscriberID:  os.Getenv("ONEST_SUBSCRIBER_ID"),
			UniqueKeyID:   getenv("ONEST_UNIQUE_KEY_ID", "key-1"),
			ProviderID:    os.Getenv("ONEST_PROVIDER_ID"),
			PrivateKeyHex: os.Getenv("ONEST_PRIVATE_KEY"),
			Timeout:       getdur("ONEST_TIMEOUT", 10*time.Second),
			MaxRetries:    getint("ONEST_MAX_RETRIES", 3),
			RetryBackoff:  getdur("ONEST_RETRY_BACKOFF", 2*time.Second),
		},
	}
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.Audit.Brokers = strings.Split(brokers, ",")
	}
	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getint(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getdur(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return fallback
}
