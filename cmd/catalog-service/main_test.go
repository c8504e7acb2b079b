package main

import (
	"os"
	"path/filepath"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/vladislavdragonenkov/catalog/internal/app"
)

// runWithConfig запускает CLI с подменённым Action и возвращает собранную конфигурацию.
func runWithConfig(t *testing.T, args ...string) (app.Config, error) {
	t.Helper()

	var cfg app.Config
	a := newApp()
	a.Action = func(c *cli.Context) error {
		var err error
		cfg, err = readConfig(c)
		return err
	}
	err := a.Run(append([]string{"catalog-service", "--env-file", ""}, args...))
	return cfg, err
}

func TestReadConfig_Defaults(t *testing.T) {
	cfg, err := runWithConfig(t)
	require.NoError(t, err)
	require.Equal(t, app.DefaultConfig(), cfg)
}

func TestReadConfig_FlagsOverrideEnvironment(t *testing.T) {
	t.Setenv("CATALOG_HTTP_ADDR", ":18080")
	t.Setenv("CATALOG_GRPC_ADDR", ":15051")

	cfg, err := runWithConfig(t, "--http-addr", ":28080", "--no-seed", "--seed-csv", "beers.csv")
	require.NoError(t, err)
	require.Equal(t, ":28080", cfg.HTTPAddr)
	require.Equal(t, ":15051", cfg.GRPCAddr)
	require.False(t, cfg.SeedEnabled)
	require.Equal(t, "beers.csv", cfg.SeedCSVPath)
}

func TestReadConfig_InvalidStorage(t *testing.T) {
	_, err := runWithConfig(t, "--storage", "sqlite")
	require.ErrorContains(t, err, "unsupported storage driver")

	_, err = runWithConfig(t, "--storage", "postgres")
	require.ErrorContains(t, err, "POSTGRES_DSN")
}

func TestLoadEnvFile(t *testing.T) {
	const key = "CATALOG_TEST_ENV_FILE_VALUE"
	t.Cleanup(func() { _ = os.Unsetenv(key) })

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte(key+"=from-file\n"), 0o600))

	require.NoError(t, loadEnvFile(path))
	require.Equal(t, "from-file", os.Getenv(key))

	require.NoError(t, loadEnvFile(filepath.Join(t.TempDir(), "missing.env")))
	require.NoError(t, loadEnvFile(""))
}

func TestSetupLogger(t *testing.T) {
	prev := log.GetLevel()
	t.Cleanup(func() { log.SetLevel(prev) })

	require.NoError(t, setupLogger("debug"))
	require.Equal(t, log.DebugLevel, log.GetLevel())
	require.Error(t, setupLogger("loud"))
}
