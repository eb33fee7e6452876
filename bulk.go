package searchflip

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/olleolleolle/search-flip/internal/domain"
	dombulk "github.com/olleolleolle/search-flip/internal/domain/bulk"
	"github.com/olleolleolle/search-flip/internal/domain/value"
	bulkuc "github.com/olleolleolle/search-flip/internal/usecase/bulk"
)

// DefaultBulkBatchSize is the number of operations per bulk request.
const DefaultBulkBatchSize = bulkuc.DefaultBatchSize

type bulkConfig struct {
	batchSize int
	ignore    []int
	refresh   string
	rate      rate.Limit
	burst     int
	gzip      bool
}

// BulkOption configures a BulkLoader.
type BulkOption func(*bulkConfig)

// BulkBatchSize sets the number of operations per request.
func BulkBatchSize(n int) BulkOption {
	return func(c *bulkConfig) { c.batchSize = n }
}

// BulkIgnoreStatus treats items failing with these statuses as successful,
// e.g. 404 for deletes of missing documents.
func BulkIgnoreStatus(statuses ...int) BulkOption {
	return func(c *bulkConfig) { c.ignore = append(c.ignore, statuses...) }
}

// BulkRefresh sets the refresh parameter: "true", "false" or "wait_for".
func BulkRefresh(mode string) BulkOption {
	return func(c *bulkConfig) { c.refresh = mode }
}

// BulkRateLimit paces batches to perSec requests per second.
func BulkRateLimit(perSec float64, burst int) BulkOption {
	return func(c *bulkConfig) {
		c.rate = rate.Limit(perSec)
		c.burst = burst
	}
}

// BulkGzip compresses bulk bodies. It has no effect with a custom transport.
func BulkGzip() BulkOption {
	return func(c *bulkConfig) { c.gzip = true }
}

// BulkLoader batches mutations of one index. It is not safe for concurrent
// use.
type BulkLoader[T any] struct {
	loader *bulkuc.Loader
}

// NewBulkLoader creates a loader for index. An empty index posts to /_bulk
// and every operation must name its own index.
func NewBulkLoader[T any](c *Client, index string, opts ...BulkOption) *BulkLoader[T] {
	cfg := bulkConfig{batchSize: DefaultBulkBatchSize}
	for _, o := range opts {
		o(&cfg)
	}

	var sender bulkuc.Sender = c.transport
	if cfg.gzip && c.builder != nil {
		sender = c.builder.Gzip()
	}

	l := bulkuc.New(sender, c.codec, index).
		WithBatchSize(cfg.batchSize).
		WithRefresh(cfg.refresh).
		WithLogger(c.obs.logger).
		WithObserver(bulkObserver{c.obs})
	if len(cfg.ignore) > 0 {
		l = l.WithIgnoreStatus(cfg.ignore...)
	}
	if cfg.rate > 0 {
		l = l.WithRateLimit(cfg.rate, cfg.burst)
	}
	return &BulkLoader[T]{loader: l}
}

// Index indexes doc under id, replacing any existing document. An empty id
// lets the backend assign one.
func (b *BulkLoader[T]) Index(ctx context.Context, id string, doc T) error {
	return b.loader.Add(ctx, BulkOperation{Action: BulkIndex, ID: id, Document: doc})
}

// Create indexes doc under id, failing the item if it already exists.
func (b *BulkLoader[T]) Create(ctx context.Context, id string, doc T) error {
	return b.loader.Add(ctx, BulkOperation{Action: BulkCreate, ID: id, Document: doc})
}

// Update merges partial into the document stored under id.
func (b *BulkLoader[T]) Update(ctx context.Context, id string, partial any) error {
	if dombulk.IsNil(partial) {
		return domain.Malformed("bulk: update requires a partial document")
	}
	return b.loader.Add(ctx, BulkOperation{Action: BulkUpdate, ID: id, Document: value.Object{"doc": partial}})
}

// Delete removes the document stored under id.
func (b *BulkLoader[T]) Delete(ctx context.Context, id string) error {
	return b.loader.Add(ctx, BulkOperation{Action: BulkDelete, ID: id})
}

// Add queues raw operations.
func (b *BulkLoader[T]) Add(ctx context.Context, ops ...BulkOperation) error {
	return b.loader.Add(ctx, ops...)
}

// Pending returns the number of queued operations.
func (b *BulkLoader[T]) Pending() int { return b.loader.Pending() }

// Flush sends the queued operations now.
func (b *BulkLoader[T]) Flush(ctx context.Context) error { return b.loader.Flush(ctx) }

// Close flushes the remainder and returns the report, also on failure.
func (b *BulkLoader[T]) Close(ctx context.Context) (BulkReport, error) { return b.loader.Close(ctx) }

// Report returns the outcome so far.
func (b *BulkLoader[T]) Report() BulkReport { return b.loader.Report() }
