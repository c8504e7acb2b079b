package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/vladislavdragonenkov/catalog/internal/storage/postgres"
	"github.com/vladislavdragonenkov/catalog/internal/version"
)

const defaultTimeout = 30 * time.Second

func dsnFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "dsn",
		Usage:   "PostgreSQL DSN",
		EnvVars: []string{"CATALOG_POSTGRES_DSN"},
	}
}

func stepsFlag() cli.Flag {
	return &cli.IntFlag{
		Name:  "steps",
		Usage: "число миграций (0 = все для up, 1 для down)",
	}
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "migrate",
		Usage:     "миграции схемы каталога",
		Writer:    out,
		ErrWriter: out,
		Flags: []cli.Flag{
			&cli.DurationFlag{Name: "timeout", Value: defaultTimeout},
		},
		Commands: []*cli.Command{
			{
				Name:  "up",
				Usage: "применить миграции",
				Flags: []cli.Flag{dsnFlag(), stepsFlag()},
				Action: withStore(func(ctx context.Context, c *cli.Context, store *postgres.Store) error {
					if err := store.MigrateUp(ctx, c.Int("steps")); err != nil {
						return fmt.Errorf("migrate up failed: %w", err)
					}
					return printStatus(ctx, c, store, "migrate up ok")
				}),
			},
			{
				Name:  "down",
				Usage: "откатить миграции",
				Flags: []cli.Flag{dsnFlag(), stepsFlag()},
				Action: withStore(func(ctx context.Context, c *cli.Context, store *postgres.Store) error {
					if err := store.MigrateDown(ctx, c.Int("steps")); err != nil {
						return fmt.Errorf("migrate down failed: %w", err)
					}
					return printStatus(ctx, c, store, "migrate down ok")
				}),
			},
			{
				Name:  "status",
				Usage: "показать текущую версию схемы",
				Flags: []cli.Flag{dsnFlag()},
				Action: withStore(func(ctx context.Context, c *cli.Context, store *postgres.Store) error {
					return printStatus(ctx, c, store, "migration status")
				}),
			},
		},
	}
}

func withStore(fn func(ctx context.Context, c *cli.Context, store *postgres.Store) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		dsn := strings.TrimSpace(c.String("dsn"))
		if dsn == "" {
			return errors.New("CATALOG_POSTGRES_DSN (or --dsn) is required")
		}

		ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
		defer cancel()

		store, err := postgres.Open(ctx, dsn, postgres.WithMaxConns(2), postgres.WithApplicationName(version.UserAgent("migrate")))
		if err != nil {
			return fmt.Errorf("open postgres store: %w", err)
		}
		defer store.Close()

		return fn(ctx, c, store)
	}
}

func printStatus(ctx context.Context, c *cli.Context, store *postgres.Store, prefix string) error {
	state, err := store.MigrationStatus(ctx)
	if err != nil {
		return fmt.Errorf("migration status failed: %w", err)
	}
	_, err = fmt.Fprintf(c.App.Writer, "%s: version=%d applied=%d pending=%s\n",
		prefix, state.Version, state.Applied, strings.Join(state.Pending, ","))
	return err
}

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
