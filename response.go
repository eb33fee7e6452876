package searchflip

import (
	"fmt"
	"iter"

	"github.com/olleolleolle/search-flip/internal/domain/search/request"
	"github.com/olleolleolle/search-flip/internal/domain/search/result"
)

// Hit is one search hit with its converted source.
type Hit[T any] struct {
	ID        string
	Index     string
	Score     *float64
	Source    T
	Highlight map[string][]string
	Sort      []any
}

// Response is the materialized result of one search request. Hit sources are
// converted on first access and cached; a Response is safe for concurrent
// use.
type Response[T any] struct {
	env  *result.Envelope
	hits *result.Hits[T]
	from int
	size int
}

func newResponse[T any](dec result.Decoder, env *result.Envelope, req request.Request) *Response[T] {
	from, _ := req.From()
	size, ok := req.Size()
	if !ok {
		size = request.DefaultSize
	}
	return &Response[T]{
		env:  env,
		hits: result.NewHits[T](dec, env.Hits()),
		from: from,
		size: size,
	}
}

// Len returns the number of hits on this page.
func (r *Response[T]) Len() int { return r.hits.Len() }

func (r *Response[T]) checkIndex(i int) error {
	if i < 0 || i >= r.hits.Len() {
		return fmt.Errorf("hit %d out of range [0, %d)", i, r.hits.Len())
	}
	return nil
}

// Hit returns hit i with its converted source.
func (r *Response[T]) Hit(i int) (Hit[T], error) {
	if err := r.checkIndex(i); err != nil {
		return Hit[T]{}, err
	}
	src, err := r.hits.At(i)
	if err != nil {
		return Hit[T]{}, err
	}
	raw := r.hits.Raw(i)
	return Hit[T]{
		ID:        raw.ID,
		Index:     raw.Index,
		Score:     raw.Score,
		Source:    src,
		Highlight: raw.Highlight,
		Sort:      raw.Sort,
	}, nil
}

// RawHit returns hit i before conversion.
func (r *Response[T]) RawHit(i int) (RawHit, error) {
	if err := r.checkIndex(i); err != nil {
		return RawHit{}, err
	}
	return r.hits.Raw(i), nil
}

// Results returns every converted source in hit order.
func (r *Response[T]) Results() ([]T, error) { return r.hits.All() }

// All yields the converted sources in hit order. A conversion failure is
// yielded once and ends the sequence.
func (r *Response[T]) All() iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		for i := range r.hits.Len() {
			v, err := r.hits.At(i)
			if !yield(v, err) || err != nil {
				return
			}
		}
	}
}

// TotalEntries returns the number of matching documents.
func (r *Response[T]) TotalEntries() int64 { return r.env.Total().Value }

// Total returns the hit count and its relation ("eq" or "gte").
func (r *Response[T]) Total() Total { return r.env.Total() }

// MaxScore returns the highest score, nil when unscored.
func (r *Response[T]) MaxScore() *float64 { return r.env.MaxScore() }

// Aggregations returns the parsed aggregation tree.
func (r *Response[T]) Aggregations() (map[string]AggregationResult, error) {
	return r.env.Aggregations()
}

// Aggregation returns the named aggregation.
func (r *Response[T]) Aggregation(name string) (AggregationResult, bool, error) {
	aggs, err := r.env.Aggregations()
	if err != nil {
		return AggregationResult{}, false, err
	}
	a, ok := aggs[name]
	return a, ok, nil
}

// ScrollID returns the scroll cursor, empty outside a scroll.
func (r *Response[T]) ScrollID() string { return r.env.ScrollID() }

// Took returns the backend processing time in milliseconds.
func (r *Response[T]) Took() int64 { return r.env.Took() }

// TimedOut reports whether the backend returned partial results.
func (r *Response[T]) TimedOut() bool { return r.env.TimedOut() }

// PerPage returns the requested page size.
func (r *Response[T]) PerPage() int { return r.size }

// CurrentPage returns the 1-based page number derived from offset and limit.
func (r *Response[T]) CurrentPage() int {
	if r.size == 0 {
		return 1
	}
	return r.from/r.size + 1
}

// TotalPages returns the number of pages needed for every matching document.
func (r *Response[T]) TotalPages() int {
	if r.size == 0 {
		return 0
	}
	total := r.TotalEntries()
	return int((total + int64(r.size) - 1) / int64(r.size))
}

// Raw returns the undecoded response body.
func (r *Response[T]) Raw() []byte { return r.env.Raw() }
