package searchflip

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"go.opentelemetry.io/otel/attribute"
)

// Execute sends the search once and memoizes the response on this value.
// Concurrent callers share the one request; each stops waiting when its own
// context is done. A failed request is not memoized; a later call retries it.
func (r *Relation[T]) Execute(ctx context.Context) (*Response[T], error) {
	if err := r.req.Err(); err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	if resp := r.memo.load(); resp != nil {
		return resp, nil
	}

	for {
		ch := r.memo.flight.DoChan("execute", func() (any, error) {
			if resp := r.memo.load(); resp != nil {
				return resp, nil
			}
			resp, err := r.execute(ctx)
			if err != nil {
				return nil, err
			}
			r.memo.store(resp)
			return resp, nil
		})

		select {
		case res := <-ch:
			if res.Err == nil {
				return res.Val.(*Response[T]), nil
			}
			// The shared call ran on another caller's context that ended first.
			if res.Shared && ctx.Err() == nil && isContextErr(res.Err) {
				continue
			}
			return nil, res.Err
		case <-ctx.Done():
			return nil, fmt.Errorf("execute: %w", ctx.Err())
		}
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (r *Relation[T]) execute(ctx context.Context) (resp *Response[T], err error) {
	ctx, done := r.client.obs.start(ctx, "Relation.Execute",
		attribute.String("searchflip.index", r.index),
	)
	defer func() { done(err) }()

	body, err := r.req.Body(r.client.negation)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	env, err := r.client.search(ctx, r.index, body, nil)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	return newResponse[T](r.client.codec, env, r.req), nil
}

// All yields the hits in order, executing on first use. Iterating again
// reuses the memoized response.
func (r *Relation[T]) All(ctx context.Context) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		resp, err := r.Execute(ctx)
		if err != nil {
			var zero T
			yield(zero, err)
			return
		}
		for v, err := range resp.All() {
			if !yield(v, err) {
				return
			}
		}
	}
}

// Results returns the hits of the current page.
func (r *Relation[T]) Results(ctx context.Context) ([]T, error) {
	resp, err := r.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Results()
}

// TotalEntries returns the total number of matching documents.
func (r *Relation[T]) TotalEntries(ctx context.Context) (int64, error) {
	resp, err := r.Execute(ctx)
	if err != nil {
		return 0, err
	}
	return resp.TotalEntries(), nil
}

// Count is TotalEntries.
func (r *Relation[T]) Count(ctx context.Context) (int64, error) { return r.TotalEntries(ctx) }

// Aggregations returns the parsed aggregation results.
func (r *Relation[T]) Aggregations(ctx context.Context) (map[string]AggregationResult, error) {
	resp, err := r.Execute(ctx)
	if err != nil {
		return nil, err
	}
	return resp.Aggregations()
}
