package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vladislavdragonenkov/catalog/internal/transport/httpapi"
)

type loadMode string

const (
	modeCreate      loadMode = "create"
	modeCreatePatch loadMode = "create-patch"
	modeBrowse      loadMode = "browse"
)

func parseMode(value string) (loadMode, error) {
	switch mode := loadMode(strings.ToLower(strings.TrimSpace(value))); mode {
	case modeCreate, modeCreatePatch, modeBrowse:
		return mode, nil
	default:
		return "", fmt.Errorf("unsupported mode %q (use create|create-patch|browse)", value)
	}
}

type beerBody struct {
	ID             string `json:"id,omitempty"`
	Version        *int64 `json:"version,omitempty"`
	BeerName       string `json:"beerName,omitempty"`
	BeerStyle      string `json:"beerStyle,omitempty"`
	UPC            string `json:"upc,omitempty"`
	QuantityOnHand *int32 `json:"quantityOnHand,omitempty"`
	Price          string `json:"price,omitempty"`
}

type beerPage struct {
	Content []beerBody `json:"content"`
}

// apiClient: тонкий клиент REST API каталога для сценариев нагрузки.
type apiClient struct {
	http    *http.Client
	baseURL string
	timeout time.Duration
	col     *collector
}

// statusError: ответ с неожиданным HTTP-статусом.
type statusError struct {
	status int
	body   string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.status, e.body)
}

func (c *apiClient) call(step, method, path string, body any, headers map[string]string, want int, out any) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	start := time.Now()
	status, err := c.exchange(ctx, method, path, body, headers, want, out)
	c.col.record(step, time.Since(start), status, err == nil)
	return status, err
}

func (c *apiClient) exchange(ctx context.Context, method, path string, body any, headers map[string]string, want int, out any) (int, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return 0, fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for name, value := range headers {
		req.Header.Set(name, value)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != want {
		return resp.StatusCode, &statusError{status: resp.StatusCode, body: strings.TrimSpace(string(raw))}
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

// runScenario выполняет один сценарий и пишет его итог в collector.
func runScenario(c *apiClient, cfg config, index int, runID string) (err error) {
	start := time.Now()
	status := http.StatusOK
	defer func() {
		if err != nil {
			var se *statusError
			if errors.As(err, &se) {
				status = se.status
			} else {
				status = 0
			}
		}
		c.col.record(scenarioStep, time.Since(start), status, err == nil)
	}()

	if cfg.mode == modeBrowse {
		return browse(c, cfg, index)
	}

	qty := int32(index % 500)
	created := beerBody{}
	_, err = c.call("CreateBeer", http.MethodPost, httpapi.BeerPath, beerBody{
		BeerName:       fmt.Sprintf("%s %d", cfg.namePrefix, index),
		BeerStyle:      "IPA",
		UPC:            fmt.Sprintf("%s-%d", runID, index),
		QuantityOnHand: &qty,
		Price:          cfg.price,
	}, map[string]string{
		httpapi.HeaderIdempotencyKey: fmt.Sprintf("lt-create-%s-%d", runID, index),
	}, http.StatusCreated, &created)
	if err != nil {
		return err
	}
	if created.ID == "" {
		return errors.New("create response returned empty beer id")
	}
	if cfg.mode == modeCreate {
		return nil
	}

	restock := qty + 10
	_, err = c.call("PatchBeer", http.MethodPatch, httpapi.BeerPath+"/"+url.PathEscape(created.ID), beerBody{
		Version:        created.Version,
		QuantityOnHand: &restock,
	}, nil, http.StatusNoContent, nil)
	return err
}

// browse листает каталог по фильтру имени и открывает первую найденную позицию.
func browse(c *apiClient, cfg config, index int) error {
	query := url.Values{}
	query.Set("beerName", cfg.namePrefix)
	query.Set("pageNumber", fmt.Sprint(index%5+1))
	query.Set("pageSize", fmt.Sprint(cfg.pageSize))
	query.Set("showInventory", "true")

	var page beerPage
	if _, err := c.call("ListBeers", http.MethodGet, httpapi.BeerPath+"?"+query.Encode(), nil, nil, http.StatusOK, &page); err != nil {
		return err
	}
	if len(page.Content) == 0 {
		return nil
	}

	var beer beerBody
	_, err := c.call("GetBeer", http.MethodGet, httpapi.BeerPath+"/"+url.PathEscape(page.Content[0].ID), nil, nil, http.StatusOK, &beer)
	return err
}
