package common

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ---------------------------------------------------------------------------
// ItemStatus enumeration
// ---------------------------------------------------------------------------

// ItemStatus is the outcome of processing a single batch item.
type ItemStatus int

const (
	ItemStatusSuccess   ItemStatus = iota // processing completed
	ItemStatusFailed                      // fn returned an error
	ItemStatusCancelled                   // context ended before the item ran
)

func (s ItemStatus) String() string {
	switch s {
	case ItemStatusSuccess:
		return "SUCCESS"
	case ItemStatusFailed:
		return "FAILED"
	case ItemStatusCancelled:
		return "CANCELLED"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", int(s))
	}
}

// ---------------------------------------------------------------------------
// Generic types
// ---------------------------------------------------------------------------

// ProcessFunc processes a single item.
type ProcessFunc[T, R any] func(ctx context.Context, item T) (R, error)

// ItemResult holds the outcome of one item, addressed by its input index.
type ItemResult[R any] struct {
	Index  int
	Result R
	Err    error
	Status ItemStatus
}

// BatchResult aggregates one Run call. Results is ordered by input index
// regardless of scheduling, so downstream output stays deterministic.
type BatchResult[R any] struct {
	Results        []ItemResult[R]
	TotalCount     int
	SuccessCount   int
	FailureCount   int
	CancelledCount int
}

// Succeeded returns the successful results in input order.
func (b *BatchResult[R]) Succeeded() []R {
	out := make([]R, 0, b.SuccessCount)
	for _, r := range b.Results {
		if r.Status == ItemStatusSuccess {
			out = append(out, r.Result)
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// BatchRunner
// ---------------------------------------------------------------------------

// BatchRunner executes a ProcessFunc over item slices in fixed-size batches
// with bounded concurrency inside each batch. Item errors are recorded per
// item and never abort the run; only context cancellation stops it early.
type BatchRunner[T, R any] struct {
	batchSize   int
	concurrency int
	logger      Logger
}

const (
	defaultRunnerBatchSize   = 50
	defaultRunnerConcurrency = 4
)

// NewBatchRunner builds a runner. Non-positive sizes fall back to defaults;
// a nil logger is replaced with a noop.
func NewBatchRunner[T, R any](batchSize, concurrency int, logger Logger) *BatchRunner[T, R] {
	if batchSize <= 0 {
		batchSize = defaultRunnerBatchSize
	}
	if concurrency <= 0 {
		concurrency = defaultRunnerConcurrency
	}
	if logger == nil {
		logger = NewNoopLogger()
	}
	return &BatchRunner[T, R]{
		batchSize:   batchSize,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Run processes items batch by batch. The returned BatchResult always covers
// every input item; when ctx ends early the unprocessed tail stays marked
// cancelled and ctx.Err() is returned alongside the partial result.
func (r *BatchRunner[T, R]) Run(ctx context.Context, items []T, fn ProcessFunc[T, R]) (*BatchResult[R], error) {
	res := &BatchResult[R]{
		Results:    make([]ItemResult[R], len(items)),
		TotalCount: len(items),
	}
	// Every slot starts cancelled; workers overwrite the slots they reach.
	for i := range res.Results {
		res.Results[i] = ItemResult[R]{Index: i, Err: context.Canceled, Status: ItemStatusCancelled}
	}

	var runErr error
	for start := 0; start < len(items); start += r.batchSize {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}

		end := start + r.batchSize
		if end > len(items) {
			end = len(items)
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.concurrency)
		for i := start; i < end; i++ {
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					res.Results[i].Err = err
					return nil
				}
				out, err := fn(gctx, items[i])
				if err != nil {
					res.Results[i] = ItemResult[R]{Index: i, Err: err, Status: ItemStatusFailed}
					return nil
				}
				res.Results[i] = ItemResult[R]{Index: i, Result: out, Status: ItemStatusSuccess}
				return nil
			})
		}
		// Workers record failures in their slots rather than returning them.
		_ = g.Wait()

		r.logger.Debug("batch processed",
			"batch_start", start,
			"batch_end", end,
			"total", len(items),
		)
	}

	for _, ir := range res.Results {
		switch ir.Status {
		case ItemStatusSuccess:
			res.SuccessCount++
		case ItemStatusFailed:
			res.FailureCount++
		case ItemStatusCancelled:
			res.CancelledCount++
		}
	}
	return res, runErr
}
