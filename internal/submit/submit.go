// Package submit delivers price and stock change-sets to the marketplace
// API in fixed-size sequential batches, with a single cooldown retry on
// rate limiting and reclassification of benign client errors.
package submit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wb-updater/internal/logger"
	"wb-updater/internal/wbapi"
)

const (
	// BatchSize is the marketplace's per-request item limit.
	BatchSize = 100

	// rateLimitCooldown is waited after a 429 before the single retry.
	// The remote rate-limit window is undocumented, so the policy is
	// deliberately retry-once, not exponential backoff.
	rateLimitCooldown = 5 * time.Second

	// interBatchDelay keeps sequential batches from tripping the rate
	// limiter in the first place.
	interBatchDelay = 500 * time.Millisecond

	// failureDelay is the extra pause after a failed batch before the
	// next one is attempted.
	failureDelay = 3 * time.Second
)

type BatchState int

const (
	StatePending BatchState = iota
	StateSent
	StateRateLimited
	StateRetrySent
	StateSuccess
	StateBenignSuccess
	StateFailure
)

func (s BatchState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateSent:
		return "sent"
	case StateRateLimited:
		return "rate-limited"
	case StateRetrySent:
		return "retry-sent"
	case StateSuccess:
		return "success"
	case StateBenignSuccess:
		return "benign-success"
	case StateFailure:
		return "failure"
	default:
		return "unknown"
	}
}

// Terminal reports whether the state ends a batch's lifecycle.
func (s BatchState) Terminal() bool {
	return s == StateSuccess || s == StateBenignSuccess || s == StateFailure
}

type BatchResult struct {
	Index int
	Size  int
	State BatchState
	Err   error
}

// Result aggregates one change-type submission.
type Result struct {
	// Deduped is how many entries the key collapse removed.
	Deduped int
	// Submitted is the item count after dedup.
	Submitted int
	Batches   []BatchResult
}

// OK is true only when every batch ended in success or benign success. A
// single hard failure marks the whole submission failed, but never stops
// the remaining batches from being attempted.
func (r Result) OK() bool {
	for _, b := range r.Batches {
		if b.State == StateFailure {
			return false
		}
	}
	return true
}

func (r Result) FailedBatches() int {
	n := 0
	for _, b := range r.Batches {
		if b.State == StateFailure {
			n++
		}
	}
	return n
}

// PriceSubmitter and StockSubmitter are the two endpoints the engine
// drives; *wbapi.Client implements both.
type PriceSubmitter interface {
	UploadPrices(ctx context.Context, changes []wbapi.PriceChange) error
}

type StockSubmitter interface {
	UpdateStocks(ctx context.Context, warehouseID int64, changes []wbapi.StockChange) error
}

type Engine struct {
	log   logger.LoggerService
	sleep func(time.Duration)
}

func NewEngine(log logger.LoggerService) *Engine {
	return &Engine{log: log, sleep: time.Sleep}
}

// SubmitPrices collapses duplicates by product ID (last wins), chunks and
// submits.
func (e *Engine) SubmitPrices(ctx context.Context, api PriceSubmitter, changes []wbapi.PriceChange) Result {
	deduped, removed := DedupPrices(changes)
	result := Result{Deduped: removed, Submitted: len(deduped)}
	if removed > 0 {
		e.log.Info(fmt.Sprintf("prices: removed %d duplicate product ids", removed))
	}
	if len(deduped) == 0 {
		return result
	}
	batches := Chunk(deduped, BatchSize)
	result.Batches = runBatches(e, ctx, "prices", batches, func(ctx context.Context, batch []wbapi.PriceChange) error {
		return api.UploadPrices(ctx, batch)
	})
	return result
}

// SubmitStocks collapses duplicates by SKU (last wins), chunks and submits
// to the one target warehouse.
func (e *Engine) SubmitStocks(ctx context.Context, api StockSubmitter, warehouseID int64, changes []wbapi.StockChange) Result {
	deduped, removed := DedupStocks(changes)
	result := Result{Deduped: removed, Submitted: len(deduped)}
	if removed > 0 {
		e.log.Info(fmt.Sprintf("stocks: removed %d duplicate skus", removed))
	}
	if len(deduped) == 0 {
		return result
	}
	batches := Chunk(deduped, BatchSize)
	result.Batches = runBatches(e, ctx, "stocks", batches, func(ctx context.Context, batch []wbapi.StockChange) error {
		return api.UpdateStocks(ctx, warehouseID, batch)
	})
	return result
}

// runBatches drives every batch through the per-batch state machine:
//
//	PENDING -> SENT -> SUCCESS | BENIGN_SUCCESS | FAILURE
//	                -> RATE_LIMITED -> RETRY_SENT -> SUCCESS | FAILURE
//
// Batches run strictly sequentially in input order; all are attempted even
// after a failure.
func runBatches[T any](e *Engine, ctx context.Context, label string, batches [][]T, send func(context.Context, []T) error) []BatchResult {
	results := make([]BatchResult, 0, len(batches))
	for i, batch := range batches {
		br := BatchResult{Index: i, Size: len(batch), State: StateSent}

		err := send(ctx, batch)
		if errors.Is(err, wbapi.ErrRateLimited) {
			br.State = StateRateLimited
			e.log.Warn(fmt.Sprintf("%s: batch %d/%d rate limited, retrying after cooldown", label, i+1, len(batches)))
			e.sleep(rateLimitCooldown)
			br.State = StateRetrySent
			err = send(ctx, batch)
			if errors.Is(err, wbapi.ErrRateLimited) {
				err = fmt.Errorf("%s batch %d: rate limited twice: %w", label, i+1, err)
			}
		}

		br.State, br.Err = classify(err)
		switch br.State {
		case StateBenignSuccess:
			e.log.Info(fmt.Sprintf("%s: batch %d/%d already applied remotely", label, i+1, len(batches)))
		case StateFailure:
			e.log.Error(fmt.Sprintf("%s: batch %d/%d failed", label, i+1, len(batches)), br.Err)
		}
		results = append(results, br)

		if i+1 < len(batches) {
			if br.State == StateFailure {
				e.sleep(failureDelay)
			}
			e.sleep(interBatchDelay)
		}
	}
	return results
}

func classify(err error) (BatchState, error) {
	if err == nil {
		return StateSuccess, nil
	}
	var apiErr *wbapi.APIError
	if errors.As(err, &apiErr) && apiErr.Benign() {
		return StateBenignSuccess, nil
	}
	return StateFailure, err
}
