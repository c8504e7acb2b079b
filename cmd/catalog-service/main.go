package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/vladislavdragonenkov/catalog/internal/app"
	"github.com/vladislavdragonenkov/catalog/internal/version"
)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger(level string) error {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	parsed, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	log.SetLevel(parsed)
	return nil
}

// loadEnvFile подгружает .env, отсутствие файла не ошибка.
// Уже заданные переменные окружения не перезаписываются.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// readConfig читает CATALOG_* окружение и применяет флаги, заданные явно.
func readConfig(c *cli.Context) (app.Config, error) {
	cfg, err := app.LoadConfig()
	if err != nil {
		return app.Config{}, err
	}

	if c.IsSet("http-addr") {
		cfg.HTTPAddr = c.String("http-addr")
	}
	if c.IsSet("grpc-addr") {
		cfg.GRPCAddr = c.String("grpc-addr")
	}
	if c.IsSet("metrics-addr") {
		cfg.MetricsAddr = c.String("metrics-addr")
	}
	if c.IsSet("storage") {
		cfg.StorageDriver = c.String("storage")
	}
	if c.IsSet("postgres-dsn") {
		cfg.PostgresDSN = c.String("postgres-dsn")
	}
	if c.IsSet("log-level") {
		cfg.LogLevel = c.String("log-level")
	}
	if c.IsSet("seed-csv") {
		cfg.SeedCSVPath = c.String("seed-csv")
	}
	if c.Bool("no-seed") {
		cfg.SeedEnabled = false
	}

	if err := cfg.Validate(); err != nil {
		return app.Config{}, err
	}
	return cfg, nil
}

func run(c *cli.Context) error {
	cfg, err := readConfig(c)
	if err != nil {
		return err
	}
	if err := setupLogger(cfg.LogLevel); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	build := version.Current()
	log.WithFields(log.Fields{
		"http_addr":    cfg.HTTPAddr,
		"grpc_addr":    cfg.GRPCAddr,
		"metrics_addr": cfg.MetricsAddr,
		"storage":      cfg.StorageDriver,
		"version":      build.Version,
		"commit":       build.Commit,
	}).Info("запускаем catalog-service")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	log.Info("catalog-service остановлен")
	return nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "catalog-service",
		Usage:   "REST API каталога пива",
		Version: version.String(),
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "env-file", Value: ".env", Usage: "файл с переменными окружения"},
			&cli.StringFlag{Name: "http-addr", Usage: "адрес REST API"},
			&cli.StringFlag{Name: "grpc-addr", Usage: "адрес gRPC health"},
			&cli.StringFlag{Name: "metrics-addr", Usage: "адрес /metrics и health checks"},
			&cli.StringFlag{Name: "storage", Usage: "хранилище: memory|postgres"},
			&cli.StringFlag{Name: "postgres-dsn", Usage: "PostgreSQL DSN"},
			&cli.StringFlag{Name: "log-level", Usage: "уровень логирования"},
			&cli.StringFlag{Name: "seed-csv", Usage: "CSV-выгрузка пива для начальной загрузки"},
			&cli.BoolFlag{Name: "no-seed", Usage: "не загружать стартовые данные"},
		},
		Before: func(c *cli.Context) error {
			return loadEnvFile(c.String("env-file"))
		},
		Action: run,
	}
}

func main() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if err := newApp().Run(os.Args); err != nil {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}
}
