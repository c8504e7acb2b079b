package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
	healthcheck "github.com/vladislavdragonenkov/catalog/internal/health"
	"github.com/vladislavdragonenkov/catalog/internal/metrics"
	"github.com/vladislavdragonenkov/catalog/internal/service/catalog"
	"github.com/vladislavdragonenkov/catalog/internal/service/customer"
	"github.com/vladislavdragonenkov/catalog/internal/service/events"
	"github.com/vladislavdragonenkov/catalog/internal/service/idempotency"
	"github.com/vladislavdragonenkov/catalog/internal/service/order"
	"github.com/vladislavdragonenkov/catalog/internal/storage/memory"
	"github.com/vladislavdragonenkov/catalog/internal/storage/postgres"
	"github.com/vladislavdragonenkov/catalog/internal/storage/redisstore"
	"github.com/vladislavdragonenkov/catalog/internal/version"
)

// runtimeDependencies: хранилища, выбранные по конфигурации.
type runtimeDependencies struct {
	beers           domain.BeerRepository
	categories      domain.CategoryRepository
	customers       domain.CustomerRepository
	orders          domain.OrderRepository
	outboxRepo      domain.OutboxRepository
	idempotencyRepo domain.IdempotencyRepository
	// idempotencyCleanup: нужен ли фоновый cleanup; Redis удаляет ключи по TTL сам.
	idempotencyCleanup bool

	storageChecker healthcheck.Checker
	redisChecker   healthcheck.Checker
	closeFn        func() error
}

func initRuntimeDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*runtimeDependencies, error) {
	deps := &runtimeDependencies{idempotencyCleanup: true}

	switch cfg.StorageDriver {
	case StorageDriverMemory:
		store := memory.NewStore()
		deps.beers = store.Beers()
		deps.categories = store.Categories()
		deps.customers = store.Customers()
		deps.orders = store.Orders()
		deps.outboxRepo = memory.NewOutboxRepository()
		deps.idempotencyRepo = memory.NewIdempotencyRepository()
		deps.storageChecker = healthcheck.NewPingChecker("storage", true, func(context.Context) error { return nil })
		deps.closeFn = func() error { return nil }
	case StorageDriverPostgres:
		if cfg.PostgresDSN == "" {
			return nil, errors.New("postgres storage requires dsn")
		}
		store, err := postgres.Open(ctx, cfg.PostgresDSN,
			postgres.WithMaxConns(cfg.PostgresMaxConns),
			postgres.WithApplicationName(version.UserAgent("service")),
		)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if cfg.PostgresAutoMigrate {
			if err := store.EnsureSchema(ctx); err != nil {
				_ = store.Close()
				return nil, fmt.Errorf("migrate postgres schema: %w", err)
			}
		}
		deps.beers = store.Beers()
		deps.categories = store.Categories()
		deps.customers = store.Customers()
		deps.orders = store.Orders()
		deps.outboxRepo = postgres.NewOutboxRepository(store)
		deps.idempotencyRepo = postgres.NewIdempotencyRepository(store)
		deps.storageChecker = healthcheck.NewPingChecker("postgres", true, store.Ping)
		deps.closeFn = store.Close
		logger.Info("postgres storage initialized")
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		repo := redisstore.NewIdempotencyRepository(client, cfg.RedisKeyPrefix)
		deps.idempotencyRepo = repo
		deps.idempotencyCleanup = false
		deps.redisChecker = healthcheck.NewPingChecker("redis", false, repo.Ping)

		closeStorage := deps.closeFn
		deps.closeFn = func() error {
			return errors.Join(client.Close(), closeStorage())
		}
		logger.WithField("addr", cfg.RedisAddr).Info("redis idempotency store initialized")
	}

	return deps, nil
}

// services: прикладной слой поверх выбранных хранилищ.
type services struct {
	catalog   *catalog.Service
	customers *customer.Service
	orders    *order.Service
	guard     *idempotency.Guard
}

func newServices(cfg Config, deps *runtimeDependencies, registerer prometheus.Registerer, logger *log.Entry) services {
	catalogMetrics := metrics.NewCatalogMetrics(registerer)
	idempotencyMetrics := metrics.NewIdempotencyMetrics(registerer)

	var recorder *events.Recorder
	if cfg.KafkaEnabled() {
		recorder = events.NewRecorder(deps.outboxRepo, logger.WithField("layer", "events"))
	}

	return services{
		catalog: catalog.NewService(deps.beers, deps.categories,
			catalog.WithEvents(recorder),
			catalog.WithMetrics(catalogMetrics),
			catalog.WithLogger(logger.WithField("layer", "catalog")),
			catalog.WithPageSizes(cfg.DefaultPageSize, cfg.MaxPageSize),
		),
		customers: customer.NewService(deps.customers,
			customer.WithEvents(recorder),
			customer.WithMetrics(catalogMetrics),
			customer.WithLogger(logger.WithField("layer", "customer")),
		),
		orders: order.NewService(deps.orders,
			order.WithEvents(recorder),
			order.WithMetrics(catalogMetrics),
			order.WithLogger(logger.WithField("layer", "order")),
		),
		guard: idempotency.NewGuard(deps.idempotencyRepo, cfg.IdempotencyTTL, idempotencyMetrics, logger.WithField("layer", "idempotency")),
	}
}
