package app

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/vladislavdragonenkov/catalog/internal/messaging/kafka"
)

// envPrefix: префикс переменных окружения сервиса (CATALOG_HTTP_ADDR и т.д.).
const envPrefix = "CATALOG"

const (
	StorageDriverMemory   = "memory"
	StorageDriverPostgres = "postgres"
)

// Config описывает настройки запуска приложения.
type Config struct {
	HTTPAddr    string `envconfig:"HTTP_ADDR" default:":8080"`
	GRPCAddr    string `envconfig:"GRPC_ADDR" default:":50051"`
	MetricsAddr string `envconfig:"METRICS_ADDR" default:":9090"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	StorageDriver       string `envconfig:"STORAGE_DRIVER" default:"memory"`
	PostgresDSN         string `envconfig:"POSTGRES_DSN"`
	PostgresAutoMigrate bool   `envconfig:"POSTGRES_AUTO_MIGRATE" default:"true"`
	PostgresMaxConns    int    `envconfig:"POSTGRES_MAX_CONNS" default:"25"`

	RedisAddr      string `envconfig:"REDIS_ADDR"`
	RedisKeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"catalog:idempotency:"`

	KafkaBrokers     []string `envconfig:"KAFKA_BROKERS"`
	KafkaTopic       string   `envconfig:"KAFKA_TOPIC" default:"catalog.events"`
	KafkaDLQTopic    string   `envconfig:"KAFKA_DLQ_TOPIC" default:"catalog.dlq"`
	KafkaCompression string   `envconfig:"KAFKA_COMPRESSION" default:"snappy"`

	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"1s"`
	OutboxBatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	OutboxMaxAttempts  int           `envconfig:"OUTBOX_MAX_ATTEMPTS" default:"3"`
	OutboxRetryDelay   time.Duration `envconfig:"OUTBOX_RETRY_DELAY" default:"200ms"`

	IdempotencyTTL              time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"24h"`
	IdempotencyCleanupInterval  time.Duration `envconfig:"IDEMPOTENCY_CLEANUP_INTERVAL" default:"1m"`
	IdempotencyCleanupBatchSize int           `envconfig:"IDEMPOTENCY_CLEANUP_BATCH_SIZE" default:"500"`

	DefaultPageSize int `envconfig:"DEFAULT_PAGE_SIZE" default:"25"`
	MaxPageSize     int `envconfig:"MAX_PAGE_SIZE" default:"1000"`

	SeedEnabled bool   `envconfig:"SEED_ENABLED" default:"true"`
	SeedCSVPath string `envconfig:"SEED_CSV_PATH"`
}

// DefaultConfig возвращает значения по умолчанию без чтения окружения.
func DefaultConfig() Config {
	return Config{
		HTTPAddr:                    ":8080",
		GRPCAddr:                    ":50051",
		MetricsAddr:                 ":9090",
		LogLevel:                    "info",
		StorageDriver:               StorageDriverMemory,
		PostgresAutoMigrate:         true,
		PostgresMaxConns:            25,
		RedisKeyPrefix:              "catalog:idempotency:",
		KafkaTopic:                  kafka.TopicCatalogEvents,
		KafkaDLQTopic:               kafka.TopicDeadLetterQueue,
		KafkaCompression:            "snappy",
		OutboxPollInterval:          time.Second,
		OutboxBatchSize:             100,
		OutboxMaxAttempts:           3,
		OutboxRetryDelay:            200 * time.Millisecond,
		IdempotencyTTL:              24 * time.Hour,
		IdempotencyCleanupInterval:  time.Minute,
		IdempotencyCleanupBatchSize: 500,
		DefaultPageSize:             25,
		MaxPageSize:                 1000,
		SeedEnabled:                 true,
	}
}

// LoadConfig читает CATALOG_* переменные окружения поверх значений по умолчанию.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate проверяет согласованность настроек.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case StorageDriverMemory:
	case StorageDriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres storage requires %s_POSTGRES_DSN", envPrefix)
		}
	default:
		return fmt.Errorf("unsupported storage driver %q", c.StorageDriver)
	}
	if c.DefaultPageSize <= 0 || c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("invalid page sizes: default=%d max=%d", c.DefaultPageSize, c.MaxPageSize)
	}
	return nil
}

// KafkaEnabled сообщает, нужно ли поднимать outbox worker.
func (c Config) KafkaEnabled() bool {
	for _, broker := range c.KafkaBrokers {
		if broker != "" {
			return true
		}
	}
	return false
}
