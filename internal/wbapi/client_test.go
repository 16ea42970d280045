package wbapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, url string) *Client {
	t.Helper()
	c, err := New(Options{
		PricesBaseURL: url,
		StocksBaseURL: url,
		Token:         "test-token",
	})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestUploadPricesRequestShape(t *testing.T) {
	var got priceUploadRequest
	var auth, contentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/upload/task" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		auth = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	err := c.UploadPrices(context.Background(), []PriceChange{
		{ProductID: 555, Price: 999, Discount: 0},
	})
	if err != nil {
		t.Fatalf("upload prices: %v", err)
	}
	if auth != "Bearer test-token" {
		t.Fatalf("auth header = %q", auth)
	}
	if contentType != "application/json" {
		t.Fatalf("content type = %q", contentType)
	}
	if len(got.Data) != 1 || got.Data[0].ProductID != 555 || got.Data[0].Price != 999 {
		t.Fatalf("payload = %+v", got)
	}
}

func TestUpdateStocksRequestShape(t *testing.T) {
	var got stockUpdateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut || r.URL.Path != "/stocks/1619436" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	err := c.UpdateStocks(context.Background(), 1619436, []StockChange{
		{SKU: "4600000000012", Amount: 5},
	})
	if err != nil {
		t.Fatalf("update stocks: %v", err)
	}
	if len(got.Stocks) != 1 || got.Stocks[0].SKU != "4600000000012" || got.Stocks[0].Amount != 5 {
		t.Fatalf("payload = %+v", got)
	}
}

func TestRateLimitedError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	err := c.UploadPrices(context.Background(), nil)
	if !errors.Is(err, ErrRateLimited) {
		t.Fatalf("err = %v, want ErrRateLimited", err)
	}
}

func TestBenignErrorClassification(t *testing.T) {
	cases := []struct {
		status int
		body   string
		benign bool
	}{
		{400, `{"errorText":"prices already set"}`, true},
		{400, `{"errorText":"Цены уже установлены"}`, true},
		{400, `{"errorText":"duplicate nmID"}`, true},
		{400, `{"errorText":"validation failed"}`, false},
		{400, "plain text already set", true},
		{500, `{"errorText":"already set"}`, false},
	}
	for _, tc := range cases {
		e := &APIError{StatusCode: tc.status, Body: tc.body}
		if e.Benign() != tc.benign {
			t.Fatalf("Benign(%d, %q) = %v, want %v", tc.status, tc.body, e.Benign(), tc.benign)
		}
	}
}

func TestHardErrorCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"errorText":"validation failed"}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	err := c.UploadPrices(context.Background(), nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("err = %v, want *APIError", err)
	}
	if apiErr.StatusCode != http.StatusBadRequest || apiErr.Benign() {
		t.Fatalf("apiErr = %+v", apiErr)
	}
}

func TestWarehouses(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/warehouses" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[{"id":1619436,"name":"Основной"}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	warehouses, err := c.Warehouses(context.Background())
	if err != nil {
		t.Fatalf("warehouses: %v", err)
	}
	if len(warehouses) != 1 || warehouses[0].ID != 1619436 {
		t.Fatalf("warehouses = %+v", warehouses)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(Options{PricesBaseURL: "x", StocksBaseURL: "y"}); err == nil {
		t.Fatalf("expected error for missing token")
	}
	if _, err := New(Options{Token: "t"}); err == nil {
		t.Fatalf("expected error for missing base urls")
	}
}
