package searchflip

import (
	"context"
	"fmt"
	"iter"
	"net/url"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/olleolleolle/search-flip/internal/domain"
	"github.com/olleolleolle/search-flip/internal/domain/search/result"
)

// DefaultScrollKeepAlive is how long the backend keeps a cursor between pages.
const DefaultScrollKeepAlive = time.Minute

type scrollConfig struct {
	keepAlive time.Duration
	clear     bool
}

// ScrollOption configures Scroll.
type ScrollOption func(*scrollConfig)

// ScrollKeepAlive sets the cursor keep-alive sent with every page request.
func ScrollKeepAlive(d time.Duration) ScrollOption {
	return func(c *scrollConfig) { c.keepAlive = d }
}

// ScrollClear releases the cursor when iteration ends.
func ScrollClear() ScrollOption {
	return func(c *scrollConfig) { c.clear = true }
}

// formatKeepAlive renders d in the backend's time unit syntax.
func formatKeepAlive(d time.Duration) string {
	switch {
	case d%time.Hour == 0:
		return strconv.FormatInt(int64(d/time.Hour), 10) + "h"
	case d%time.Minute == 0:
		return strconv.FormatInt(int64(d/time.Minute), 10) + "m"
	case d%time.Second == 0:
		return strconv.FormatInt(int64(d/time.Second), 10) + "s"
	default:
		return strconv.FormatInt(d.Milliseconds(), 10) + "ms"
	}
}

// Scroll walks every matching document in pages of batchSize using the
// backend's scroll cursor. The offset of the relation is ignored. Iteration
// stops after a short page or an empty cursor. An expired cursor yields an
// error matching ErrScrollExpired; restart from the beginning.
func (r *Relation[T]) Scroll(ctx context.Context, batchSize int, opts ...ScrollOption) iter.Seq2[*Response[T], error] {
	cfg := scrollConfig{keepAlive: DefaultScrollKeepAlive}
	for _, o := range opts {
		o(&cfg)
	}

	return func(yield func(*Response[T], error) bool) {
		if err := r.req.Err(); err != nil {
			yield(nil, fmt.Errorf("scroll: %w", err))
			return
		}
		if batchSize < 1 {
			yield(nil, fmt.Errorf("scroll: %w", domain.Malformed("batch size must be positive, got %d", batchSize)))
			return
		}
		if cfg.keepAlive <= 0 {
			yield(nil, fmt.Errorf("scroll: %w", domain.Malformed("keep-alive must be positive, got %s", cfg.keepAlive)))
			return
		}

		var err error
		ctx, done := r.client.obs.start(ctx, "Relation.Scroll",
			attribute.String("searchflip.index", r.index),
			attribute.Int("searchflip.batch_size", batchSize),
		)
		defer func() { done(err) }()

		keepAlive := formatKeepAlive(cfg.keepAlive)
		req := r.req.Unpaged().Limit(batchSize)
		body, err := req.Body(r.client.negation)
		if err != nil {
			err = fmt.Errorf("scroll: %w", err)
			yield(nil, err)
			return
		}

		var scrollID string
		if cfg.clear {
			defer func() {
				if scrollID == "" {
					return
				}
				// The caller's context may already be canceled.
				if cerr := r.client.clearScroll(context.WithoutCancel(ctx), scrollID); cerr != nil {
					r.client.obs.logger.Debug("clear scroll failed", zap.Error(cerr))
				}
			}()
		}

		env, err := r.client.search(ctx, r.index, body, url.Values{"scroll": {keepAlive}})
		for {
			if err != nil {
				err = fmt.Errorf("scroll: %w", err)
				yield(nil, err)
				return
			}
			if id := env.ScrollID(); id != "" {
				scrollID = id
			}
			page := newResponse[T](r.client.codec, env, req)
			if !yield(page, nil) {
				return
			}
			if page.Len() < batchSize || env.ScrollID() == "" {
				return
			}
			var next *result.Envelope
			next, err = r.client.scroll(ctx, keepAlive, env.ScrollID())
			env = next
		}
	}
}
