package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/vladislavdragonenkov/catalog/internal/domain"
)

const (
	pingTimeout = 5 * time.Second
	opTimeout   = 5 * time.Second
)

// poolSettings: параметры пула database/sql поверх pgx.
type poolSettings struct {
	maxOpen     int
	maxIdle     int
	maxLifetime time.Duration
	maxIdleTime time.Duration
	appName     string
}

// Option меняет параметры подключения.
type Option func(*poolSettings)

// WithMaxConns ограничивает число открытых соединений; простаивающих держится столько же.
func WithMaxConns(n int) Option {
	return func(p *poolSettings) {
		if n > 0 {
			p.maxOpen, p.maxIdle = n, n
		}
	}
}

// WithApplicationName задаёт application_name, его видно в pg_stat_activity.
func WithApplicationName(name string) Option {
	return func(p *poolSettings) { p.appName = name }
}

// Store владеет пулом соединений и раздаёт репозитории поверх него.
type Store struct {
	db *sql.DB
}

// Open разбирает dsn через pgx, открывает пул и ждёт ответа базы.
func Open(ctx context.Context, dsn string, options ...Option) (*Store, error) {
	settings := poolSettings{
		maxOpen:     25,
		maxIdle:     25,
		maxLifetime: 30 * time.Minute,
		maxIdleTime: 5 * time.Minute,
	}
	for _, option := range options {
		option(&settings)
	}

	connCfg, err := pgx.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if settings.appName != "" {
		connCfg.RuntimeParams["application_name"] = settings.appName
	}

	db := stdlib.OpenDB(*connCfg)
	db.SetMaxOpenConns(settings.maxOpen)
	db.SetMaxIdleConns(settings.maxIdle)
	db.SetConnMaxLifetime(settings.maxLifetime)
	db.SetConnMaxIdleTime(settings.maxIdleTime)

	store := &Store{db: db}
	if err := store.Ping(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

func (s *Store) DB() *sql.DB {
	return s.db
}

// Beers возвращает PostgreSQL-реализацию BeerRepository.
func (s *Store) Beers() domain.BeerRepository { return &beerRepository{db: s.db} }

// Categories возвращает PostgreSQL-реализацию CategoryRepository.
func (s *Store) Categories() domain.CategoryRepository { return &categoryRepository{db: s.db} }

// Customers возвращает PostgreSQL-реализацию CustomerRepository.
func (s *Store) Customers() domain.CustomerRepository { return &customerRepository{db: s.db} }

// Orders возвращает PostgreSQL-реализацию OrderRepository.
func (s *Store) Orders() domain.OrderRepository { return &orderRepository{db: s.db} }

func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("postgres store is not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

// EnsureSchema применяет все up-миграции.
func (s *Store) EnsureSchema(ctx context.Context) error {
	return s.MigrateUp(ctx, 0)
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// inTx выполняет fn в транзакции read committed; ошибка fn откатывает транзакцию.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// rowExistsTx проверяет наличие строки по id в заданной таблице.
func rowExistsTx(ctx context.Context, tx *sql.Tx, table, id string) (bool, error) {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE id = $1)`, table)
	if err := tx.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, fmt.Errorf("check %s exists: %w", table, err)
	}
	return exists, nil
}
