package wbapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"wb-updater/internal/config"
)

// ErrRateLimited marks an HTTP 429 response. The caller decides the retry
// policy; the client never retries by itself.
var ErrRateLimited = errors.New("rate limited")

// APIError is any non-2xx, non-429 response.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api status %d: %s", e.StatusCode, truncate(e.Body, 200))
}

// The marketplace answers some no-op submissions with a client error whose
// text means the requested state is already in place.
var benignPhrases = []string{
	"already set",
	"уже установлены",
	"duplicate",
}

// Benign reports whether the error text says the remote state already
// matches the submitted one.
func (e *APIError) Benign() bool {
	if e.StatusCode < 400 || e.StatusCode >= 500 {
		return false
	}
	text := e.Body
	var parsed errorResponse
	if err := json.Unmarshal([]byte(e.Body), &parsed); err == nil && parsed.ErrorText != "" {
		text = parsed.ErrorText
	}
	lower := strings.ToLower(text)
	for _, phrase := range benignPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

type Client struct {
	pricesBase string
	stocksBase string
	token      string
	httpClient *http.Client

	priceTimeout time.Duration
	stockTimeout time.Duration
}

type Options struct {
	PricesBaseURL string
	StocksBaseURL string
	Token         string

	// HTTPClient overrides the default client; per-request deadlines come
	// from contexts built with the endpoint timeouts below.
	HTTPClient   *http.Client
	PriceTimeout time.Duration
	StockTimeout time.Duration
}

func New(opts Options) (*Client, error) {
	if strings.TrimSpace(opts.Token) == "" {
		return nil, errors.New("api token is required")
	}
	if strings.TrimSpace(opts.PricesBaseURL) == "" || strings.TrimSpace(opts.StocksBaseURL) == "" {
		return nil, errors.New("api base urls are required")
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	pt := opts.PriceTimeout
	if pt <= 0 {
		pt = config.PriceUploadTimeout
	}
	st := opts.StockTimeout
	if st <= 0 {
		st = config.StockUpdateTimeout
	}
	return &Client{
		pricesBase:   strings.TrimRight(opts.PricesBaseURL, "/"),
		stocksBase:   strings.TrimRight(opts.StocksBaseURL, "/"),
		token:        opts.Token,
		httpClient:   hc,
		priceTimeout: pt,
		stockTimeout: st,
	}, nil
}

// Warehouses lists the seller's warehouses. The pipeline calls it once at
// startup as a credential and connectivity check.
func (c *Client) Warehouses(ctx context.Context) ([]Warehouse, error) {
	ctx, cancel := context.WithTimeout(ctx, c.stockTimeout)
	defer cancel()

	body, err := c.do(ctx, http.MethodGet, c.stocksBase+"/warehouses", nil)
	if err != nil {
		return nil, err
	}
	var warehouses []Warehouse
	if err := json.Unmarshal(body, &warehouses); err != nil {
		return nil, fmt.Errorf("warehouses payload parse: %w", err)
	}
	return warehouses, nil
}

// UploadPrices submits one batch of price changes.
func (c *Client) UploadPrices(ctx context.Context, changes []PriceChange) error {
	ctx, cancel := context.WithTimeout(ctx, c.priceTimeout)
	defer cancel()

	_, err := c.do(ctx, http.MethodPost, c.pricesBase+"/upload/task", priceUploadRequest{Data: changes})
	return err
}

// UpdateStocks submits one batch of absolute stock quantities for a
// warehouse.
func (c *Client) UpdateStocks(ctx context.Context, warehouseID int64, changes []StockChange) error {
	ctx, cancel := context.WithTimeout(ctx, c.stockTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/stocks/%d", c.stocksBase, warehouseID)
	_, err := c.do(ctx, http.MethodPut, url, stockUpdateRequest{Stocks: changes})
	return err
}

func (c *Client) do(ctx context.Context, method, url string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return respBody, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, ErrRateLimited
	default:
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
