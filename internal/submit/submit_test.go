package submit

import (
	"context"
	"errors"
	"testing"
	"time"

	"wb-updater/internal/logger"
	"wb-updater/internal/wbapi"
)

type scriptedPriceAPI struct {
	responses []error
	calls     [][]wbapi.PriceChange
}

func (s *scriptedPriceAPI) UploadPrices(_ context.Context, changes []wbapi.PriceChange) error {
	s.calls = append(s.calls, append([]wbapi.PriceChange(nil), changes...))
	if len(s.responses) == 0 {
		return nil
	}
	err := s.responses[0]
	s.responses = s.responses[1:]
	return err
}

type scriptedStockAPI struct {
	responses   []error
	calls       [][]wbapi.StockChange
	warehouseID int64
}

func (s *scriptedStockAPI) UpdateStocks(_ context.Context, warehouseID int64, changes []wbapi.StockChange) error {
	s.warehouseID = warehouseID
	s.calls = append(s.calls, append([]wbapi.StockChange(nil), changes...))
	if len(s.responses) == 0 {
		return nil
	}
	err := s.responses[0]
	s.responses = s.responses[1:]
	return err
}

func newTestEngine() (*Engine, *[]time.Duration) {
	e := NewEngine(logger.NewStderr())
	var sleeps []time.Duration
	e.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return e, &sleeps
}

func prices(n int, startID int64) []wbapi.PriceChange {
	out := make([]wbapi.PriceChange, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, wbapi.PriceChange{ProductID: startID + int64(i), Price: 100})
	}
	return out
}

func TestDedupPricesLastWins(t *testing.T) {
	in := []wbapi.PriceChange{
		{ProductID: 1, Price: 10},
		{ProductID: 1, Price: 20},
	}
	out, removed := DedupPrices(in)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if len(out) != 1 || out[0].Price != 20 {
		t.Fatalf("out = %+v, want single entry with price 20", out)
	}
}

func TestDedupStocksPreservesOrder(t *testing.T) {
	in := []wbapi.StockChange{
		{SKU: "a", Amount: 1},
		{SKU: "b", Amount: 2},
		{SKU: "a", Amount: 3},
	}
	out, removed := DedupStocks(in)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}
	if len(out) != 2 || out[0].SKU != "a" || out[0].Amount != 3 || out[1].SKU != "b" {
		t.Fatalf("out = %+v", out)
	}
}

func TestChunk(t *testing.T) {
	items := prices(250, 1)
	batches := Chunk(items, 100)
	if len(batches) != 3 {
		t.Fatalf("batches = %d, want 3", len(batches))
	}
	if len(batches[0]) != 100 || len(batches[1]) != 100 || len(batches[2]) != 50 {
		t.Fatalf("batch sizes = %d,%d,%d", len(batches[0]), len(batches[1]), len(batches[2]))
	}
	var rejoined []wbapi.PriceChange
	for _, b := range batches {
		rejoined = append(rejoined, b...)
	}
	for i := range items {
		if rejoined[i] != items[i] {
			t.Fatalf("concatenated batches diverge at %d", i)
		}
	}
}

func TestSubmitPricesEmptyAfterDedupShortCircuits(t *testing.T) {
	e, sleeps := newTestEngine()
	api := &scriptedPriceAPI{}

	res := e.SubmitPrices(context.Background(), api, nil)
	if !res.OK() || len(api.calls) != 0 || len(*sleeps) != 0 {
		t.Fatalf("empty input must be a no-call success, res=%+v calls=%d", res, len(api.calls))
	}
}

func TestSubmitPricesRateLimitRetryOnceSucceeds(t *testing.T) {
	e, sleeps := newTestEngine()
	api := &scriptedPriceAPI{responses: []error{wbapi.ErrRateLimited, nil}}

	res := e.SubmitPrices(context.Background(), api, prices(3, 1))
	if !res.OK() {
		t.Fatalf("expected success after retry, res=%+v", res)
	}
	if len(api.calls) != 2 {
		t.Fatalf("calls = %d, want 2 (initial + retry)", len(api.calls))
	}
	if len(*sleeps) != 1 || (*sleeps)[0] != rateLimitCooldown {
		t.Fatalf("sleeps = %v, want single cooldown", *sleeps)
	}
	if res.Batches[0].State != StateSuccess {
		t.Fatalf("state = %v, want success", res.Batches[0].State)
	}
}

func TestSubmitPricesTwoRateLimitsFail(t *testing.T) {
	e, _ := newTestEngine()
	api := &scriptedPriceAPI{responses: []error{wbapi.ErrRateLimited, wbapi.ErrRateLimited}}

	res := e.SubmitPrices(context.Background(), api, prices(1, 1))
	if res.OK() {
		t.Fatalf("expected failure after second 429")
	}
	if len(api.calls) != 2 {
		t.Fatalf("calls = %d, want exactly 2 (no further retries)", len(api.calls))
	}
	if res.Batches[0].State != StateFailure {
		t.Fatalf("state = %v, want failure", res.Batches[0].State)
	}
}

func TestSubmitPricesBenignErrorIsSuccess(t *testing.T) {
	e, sleeps := newTestEngine()
	api := &scriptedPriceAPI{responses: []error{
		&wbapi.APIError{StatusCode: 400, Body: `{"errorText":"prices already set"}`},
	}}

	res := e.SubmitPrices(context.Background(), api, prices(1, 1))
	if !res.OK() {
		t.Fatalf("benign error must count as success, res=%+v", res)
	}
	if res.Batches[0].State != StateBenignSuccess {
		t.Fatalf("state = %v, want benign success", res.Batches[0].State)
	}
	if len(api.calls) != 1 || len(*sleeps) != 0 {
		t.Fatalf("benign error must not trigger retries or cooldowns")
	}
}

func TestSubmitPricesFailureDoesNotAbortRemainingBatches(t *testing.T) {
	e, sleeps := newTestEngine()
	api := &scriptedPriceAPI{responses: []error{
		&wbapi.APIError{StatusCode: 500, Body: "boom"},
		nil,
		nil,
	}}

	res := e.SubmitPrices(context.Background(), api, prices(250, 1))
	if res.OK() {
		t.Fatalf("expected aggregate failure")
	}
	if len(api.calls) != 3 {
		t.Fatalf("calls = %d, want all 3 batches attempted", len(api.calls))
	}
	if res.FailedBatches() != 1 {
		t.Fatalf("failed batches = %d, want 1", res.FailedBatches())
	}
	// Failed first batch: failure delay + pacing; then pacing between 2 and 3.
	want := []time.Duration{failureDelay, interBatchDelay, interBatchDelay}
	if len(*sleeps) != len(want) {
		t.Fatalf("sleeps = %v, want %v", *sleeps, want)
	}
	for i := range want {
		if (*sleeps)[i] != want[i] {
			t.Fatalf("sleeps = %v, want %v", *sleeps, want)
		}
	}
}

func TestSubmitStocks(t *testing.T) {
	e, _ := newTestEngine()
	api := &scriptedStockAPI{}

	changes := []wbapi.StockChange{
		{SKU: "4600000000012", Amount: 5},
		{SKU: "4600000000012", Amount: 7},
		{SKU: "4600000000029", Amount: 1},
	}
	res := e.SubmitStocks(context.Background(), api, 1619436, changes)
	if !res.OK() {
		t.Fatalf("res = %+v", res)
	}
	if api.warehouseID != 1619436 {
		t.Fatalf("warehouse = %d", api.warehouseID)
	}
	if res.Deduped != 1 || res.Submitted != 2 {
		t.Fatalf("deduped=%d submitted=%d", res.Deduped, res.Submitted)
	}
	if api.calls[0][0].Amount != 7 {
		t.Fatalf("last-wins dedup not applied: %+v", api.calls[0])
	}
}

func TestClassifyWrappedErrors(t *testing.T) {
	state, err := classify(nil)
	if state != StateSuccess || err != nil {
		t.Fatalf("classify(nil) = %v, %v", state, err)
	}

	benign := &wbapi.APIError{StatusCode: 400, Body: "duplicate"}
	state, err = classify(errors.Join(errors.New("ctx"), benign))
	if state != StateBenignSuccess || err != nil {
		t.Fatalf("classify(wrapped benign) = %v, %v", state, err)
	}

	hard := &wbapi.APIError{StatusCode: 403, Body: "forbidden"}
	state, err = classify(hard)
	if state != StateFailure || err == nil {
		t.Fatalf("classify(hard) = %v, %v", state, err)
	}
}
