// loadtest нагружает REST API каталога сценариями create, create-patch и browse.
package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v2"

	"github.com/vladislavdragonenkov/catalog/internal/version"
)

// maxNamePrefix оставляет место под номер сценария в пределах длины beerName.
const maxNamePrefix = 40

type config struct {
	baseURL     string
	total       int
	totalSet    bool
	duration    time.Duration
	concurrency int
	timeout     time.Duration
	mode        loadMode
	namePrefix  string
	price       string
	pageSize    int
	outputPath  string
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:    "loadtest",
		Usage:   "нагрузочный прогон REST API каталога",
		Version: version.String(),
		Writer:  out,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "base-url", Value: "http://localhost:8080", EnvVars: []string{"CATALOG_LOADTEST_BASE_URL"}},
			&cli.IntFlag{Name: "total", Value: 400, Usage: "число сценариев; с --duration только верхняя граница"},
			&cli.DurationFlag{Name: "duration", Usage: "длительность прогона вместо фиксированного числа"},
			&cli.IntFlag{Name: "concurrency", Value: 16},
			&cli.DurationFlag{Name: "timeout", Value: 5 * time.Second, Usage: "таймаут одного HTTP-запроса"},
			&cli.StringFlag{Name: "mode", Value: string(modeCreate), Usage: "create|create-patch|browse"},
			&cli.StringFlag{Name: "name-prefix", Value: "Load Test Ale"},
			&cli.StringFlag{Name: "price", Value: "9.99"},
			&cli.IntFlag{Name: "page-size", Value: 25},
			&cli.StringFlag{Name: "output", Usage: "путь JSON-отчёта"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := readConfig(c)
			if err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			result := execute(cfg, &http.Client{})
			printReport(c.App.Writer, result, cfg)
			if cfg.outputPath != "" {
				if err := writeJSONReport(cfg.outputPath, result); err != nil {
					return fmt.Errorf("write report: %w", err)
				}
			}
			if result.FailedScenarios > 0 {
				return cli.Exit(fmt.Sprintf("%d scenarios failed", result.FailedScenarios), 1)
			}
			return nil
		},
	}
}

func main() {
	if err := newApp(os.Stdout).Run(os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func readConfig(c *cli.Context) (config, error) {
	mode, err := parseMode(c.String("mode"))
	if err != nil {
		return config{}, err
	}
	cfg := config{
		baseURL:     strings.TrimRight(strings.TrimSpace(c.String("base-url")), "/"),
		total:       c.Int("total"),
		totalSet:    c.IsSet("total"),
		duration:    c.Duration("duration"),
		concurrency: c.Int("concurrency"),
		timeout:     c.Duration("timeout"),
		mode:        mode,
		namePrefix:  strings.TrimSpace(c.String("name-prefix")),
		price:       strings.TrimSpace(c.String("price")),
		pageSize:    c.Int("page-size"),
		outputPath:  strings.TrimSpace(c.String("output")),
	}

	switch {
	case cfg.baseURL == "":
		return config{}, errors.New("base-url is required")
	case cfg.duration < 0:
		return config{}, errors.New("duration must be >= 0")
	case cfg.duration == 0 && cfg.total <= 0:
		return config{}, errors.New("total must be > 0")
	case cfg.concurrency <= 0:
		return config{}, errors.New("concurrency must be > 0")
	case cfg.timeout <= 0:
		return config{}, errors.New("timeout must be > 0")
	case cfg.namePrefix == "" || len([]rune(cfg.namePrefix)) > maxNamePrefix:
		return config{}, fmt.Errorf("name-prefix must be 1..%d characters", maxNamePrefix)
	case cfg.pageSize <= 0:
		return config{}, errors.New("page-size must be > 0")
	}
	if _, err := decimal.NewFromString(cfg.price); err != nil {
		return config{}, fmt.Errorf("price: %w", err)
	}
	return cfg, nil
}

// execute прогоняет сценарии пулом из cfg.concurrency воркеров.
func execute(cfg config, httpClient *http.Client) report {
	startedAt := time.Now()
	runID := fmt.Sprintf("%d-%d", startedAt.UnixNano(), os.Getpid())
	col := newCollector()
	client := &apiClient{http: httpClient, baseURL: cfg.baseURL, timeout: cfg.timeout, col: col}

	jobs := make(chan int, cfg.concurrency*2)
	var wg sync.WaitGroup
	for i := 0; i < cfg.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				_ = runScenario(client, cfg, index, runID)
			}
		}()
	}

	dispatchJobs(jobs, cfg)
	wg.Wait()

	return col.buildReport(startedAt, time.Since(startedAt))
}

func dispatchJobs(jobs chan<- int, cfg config) {
	defer close(jobs)

	if cfg.duration <= 0 {
		for i := 0; i < cfg.total; i++ {
			jobs <- i
		}
		return
	}

	timer := time.NewTimer(cfg.duration)
	defer timer.Stop()

	for i := 0; ; i++ {
		if cfg.totalSet && i >= cfg.total {
			return
		}
		select {
		case <-timer.C:
			return
		case jobs <- i:
		}
	}
}
