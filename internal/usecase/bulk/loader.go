// Package bulk submits bulk mutations in fixed-size batches and collects
// per-item outcomes.
package bulk

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/olleolleolle/search-flip/internal/codec"
	"github.com/olleolleolle/search-flip/internal/domain"
	dombulk "github.com/olleolleolle/search-flip/internal/domain/bulk"
)

// DefaultBatchSize is the number of operations per request unless configured.
const DefaultBatchSize = 1000

// Report summarizes a load.
type Report struct {
	Batches   int
	Succeeded int
	Failures  []dombulk.Result
	Results   []dombulk.Result
}

// Failed reports whether any item failed.
func (r Report) Failed() bool { return len(r.Failures) > 0 }

// Loader accumulates operations and flushes them in batches. Item failures
// are recorded and never stop the loader; a batch-level failure does. No
// request is retried. A Loader is not safe for concurrent use.
type Loader struct {
	sender    Sender
	codec     codec.Codec
	index     string
	logger    *zap.Logger
	observer  Observer
	limiter   *rate.Limiter
	batchSize int
	ignore    map[int]bool
	refresh   string

	pending []dombulk.Operation
	next    int
	report  Report
	err     error
}

// New creates a loader posting to index. An empty index posts to /_bulk and
// every operation must name its own index.
func New(sender Sender, c codec.Codec, index string) *Loader {
	return &Loader{
		sender:    sender,
		codec:     c,
		index:     index,
		logger:    zap.NewNop(),
		observer:  nopObserver{},
		batchSize: DefaultBatchSize,
	}
}

// WithBatchSize configures the batch size.
func (l *Loader) WithBatchSize(size int) *Loader {
	if size > 0 {
		l.batchSize = size
	}
	return l
}

// WithIgnoreStatus treats items with these statuses as successful.
func (l *Loader) WithIgnoreStatus(statuses ...int) *Loader {
	ignore := make(map[int]bool, len(l.ignore)+len(statuses))
	for s := range l.ignore {
		ignore[s] = true
	}
	for _, s := range statuses {
		ignore[s] = true
	}
	l.ignore = ignore
	return l
}

// WithRefresh sets the refresh parameter sent with every batch.
func (l *Loader) WithRefresh(mode string) *Loader {
	l.refresh = mode
	return l
}

// WithRateLimit paces batch submissions.
func (l *Loader) WithRateLimit(limit rate.Limit, burst int) *Loader {
	if burst < 1 {
		burst = 1
	}
	l.limiter = rate.NewLimiter(limit, burst)
	return l
}

// WithLogger sets the logger used for item failures.
func (l *Loader) WithLogger(logger *zap.Logger) *Loader {
	if logger != nil {
		l.logger = logger
	}
	return l
}

// WithObserver sets the batch observer.
func (l *Loader) WithObserver(o Observer) *Loader {
	if o != nil {
		l.observer = o
	}
	return l
}

// Pending returns the number of queued operations.
func (l *Loader) Pending() int { return len(l.pending) }

// Report returns the outcome so far.
func (l *Loader) Report() Report { return l.report }

// Add queues operations, flushing whenever a batch fills up. Invalid
// operations are rejected before anything is queued.
func (l *Loader) Add(ctx context.Context, ops ...dombulk.Operation) error {
	if l.err != nil {
		return l.err
	}
	for i, op := range ops {
		if err := op.Validate(); err != nil {
			return fmt.Errorf("operation %d: %w", l.next+len(l.pending)+i, err)
		}
		if op.Index == "" && l.index == "" {
			return domain.Malformed("operation %d: no index", l.next+len(l.pending)+i)
		}
	}
	for _, op := range ops {
		l.pending = append(l.pending, op)
		if len(l.pending) >= l.batchSize {
			if err := l.Flush(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush submits the queued operations as one batch.
func (l *Loader) Flush(ctx context.Context) error {
	if l.err != nil {
		return l.err
	}
	if len(l.pending) == 0 {
		return nil
	}
	batch := l.pending
	l.pending = nil

	if err := l.submit(ctx, batch); err != nil {
		l.err = err
		return err
	}
	return nil
}

// Close flushes the remainder and returns the report. The report is
// returned even when a batch failed.
func (l *Loader) Close(ctx context.Context) (Report, error) {
	err := l.Flush(ctx)
	return l.report, err
}

// Load adds every operation and closes the loader.
func (l *Loader) Load(ctx context.Context, ops []dombulk.Operation) (Report, error) {
	if err := l.Add(ctx, ops...); err != nil {
		return l.report, err
	}
	return l.Close(ctx)
}

func (l *Loader) submit(ctx context.Context, batch []dombulk.Operation) (err error) {
	batchNo := l.report.Batches + 1
	ctx, done := l.observer.BatchStart(ctx, l.index, len(batch))
	defer func() { done(err) }()

	if l.limiter != nil {
		if werr := l.limiter.Wait(ctx); werr != nil {
			return fmt.Errorf("bulk batch %d: wait: %w", batchNo, werr)
		}
	}

	body, err := dombulk.Encode(l.codec, batch)
	if err != nil {
		return fmt.Errorf("bulk batch %d: %w", batchNo, err)
	}

	var params url.Values
	if l.refresh != "" {
		params = url.Values{"refresh": {l.refresh}}
	}
	headers := http.Header{"Content-Type": {"application/x-ndjson"}}

	resp, err := l.sender.Post(ctx, l.path(), body, params, headers)
	if err != nil {
		return fmt.Errorf("bulk batch %d: %w", batchNo, err)
	}
	if !resp.OK() {
		return fmt.Errorf("bulk batch %d: %w", batchNo, domain.NewResponseError("bulk", resp.Status, resp.Body))
	}

	results, err := dombulk.ParseResponse(l.codec, resp.Body, batch, l.next, l.ignore)
	if err != nil {
		return fmt.Errorf("bulk batch %d: %w", batchNo, err)
	}

	l.next += len(batch)
	l.report.Batches = batchNo
	for _, r := range results {
		l.report.Results = append(l.report.Results, r)
		if r.Status() == dombulk.StatusError {
			l.report.Failures = append(l.report.Failures, r)
			l.logger.Warn("bulk item failed",
				zap.Int("batch", batchNo),
				zap.Int("position", r.Position()),
				zap.String("action", string(r.Action())),
				zap.String("id", r.ID()),
				zap.Int("status", r.Code()),
				zap.Error(r.Err()),
			)
			continue
		}
		l.report.Succeeded++
	}
	return nil
}

func (l *Loader) path() string {
	if l.index == "" {
		return "/_bulk"
	}
	return "/" + url.PathEscape(l.index) + "/_bulk"
}

type nopObserver struct{}

func (nopObserver) BatchStart(ctx context.Context, _ string, _ int) (context.Context, func(error)) {
	return ctx, func(error) {}
}
