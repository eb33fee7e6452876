package searchflip

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/olleolleolle/search-flip/internal/domain/search/request"
)

// Relation is an immutable, chainable search over one index. Every method
// returns a new Relation; the receiver is never modified. A Relation may be
// shared between goroutines.
type Relation[T any] struct {
	index  string
	client *Client
	req    request.Request
	memo   *memo[T]
}

// memo holds the response of one Relation value. It is never copied to a
// derived Relation. mu guards resp only; the request itself runs in flight.
type memo[T any] struct {
	mu     sync.Mutex
	resp   *Response[T]
	flight singleflight.Group
}

func (m *memo[T]) load() *Response[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resp
}

func (m *memo[T]) store(resp *Response[T]) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resp = resp
}

func newRelation[T any](c *Client, index string, req request.Request) *Relation[T] {
	return &Relation[T]{index: index, client: c, req: req, memo: &memo[T]{}}
}

func (r *Relation[T]) derive(req request.Request) *Relation[T] {
	return newRelation[T](r.client, r.index, req)
}

// Index returns the target index name.
func (r *Relation[T]) Index() string { return r.index }

// Err returns the first build error. Terminal operations return it before
// sending anything.
func (r *Relation[T]) Err() error { return r.req.Err() }

// Request compiles the search body without sending it.
func (r *Relation[T]) Request() (Object, error) {
	body, err := r.req.Body(r.client.negation)
	if err != nil {
		return nil, fmt.Errorf("compile request: %w", err)
	}
	return body, nil
}

// Executed reports whether this value holds a response. It does not wait
// for a request in flight.
func (r *Relation[T]) Executed() bool { return r.memo.load() != nil }

// Where requires every field to match. Scopes hits and aggregations.
func (r *Relation[T]) Where(fields Fields) *Relation[T] { return r.derive(r.req.Where(fields)) }

// WhereNot excludes documents matching any field. Scopes hits and aggregations.
func (r *Relation[T]) WhereNot(fields Fields) *Relation[T] { return r.derive(r.req.WhereNot(fields)) }

// PostWhere requires every field to match. Narrows hits only.
func (r *Relation[T]) PostWhere(fields Fields) *Relation[T] { return r.derive(r.req.PostWhere(fields)) }

// PostWhereNot excludes hits matching any field. Narrows hits only.
func (r *Relation[T]) PostWhereNot(fields Fields) *Relation[T] {
	return r.derive(r.req.PostWhereNot(fields))
}

// Filter adds a raw clause to the query's must bucket.
func (r *Relation[T]) Filter(clause Object) *Relation[T] { return r.derive(r.req.Filter(clause)) }

// FilterNot adds a raw clause to the query's must-not bucket.
func (r *Relation[T]) FilterNot(clause Object) *Relation[T] { return r.derive(r.req.FilterNot(clause)) }

// PostFilter adds a raw clause to the post filter's must bucket.
func (r *Relation[T]) PostFilter(clause Object) *Relation[T] { return r.derive(r.req.PostFilter(clause)) }

// PostFilterNot adds a raw clause to the post filter's must-not bucket.
func (r *Relation[T]) PostFilterNot(clause Object) *Relation[T] {
	return r.derive(r.req.PostFilterNot(clause))
}

// Range requires field to lie within rng.
func (r *Relation[T]) Range(field string, rng Range) *Relation[T] {
	return r.derive(r.req.Range(field, rng))
}

// PostRange narrows hits to field within rng.
func (r *Relation[T]) PostRange(field string, rng Range) *Relation[T] {
	return r.derive(r.req.PostRange(field, rng))
}

// Exists requires field to be present.
func (r *Relation[T]) Exists(field string) *Relation[T] { return r.derive(r.req.Exists(field)) }

// ExistsNot requires field to be absent.
func (r *Relation[T]) ExistsNot(field string) *Relation[T] { return r.derive(r.req.ExistsNot(field)) }

// PostExists narrows hits to those with field present.
func (r *Relation[T]) PostExists(field string) *Relation[T] { return r.derive(r.req.PostExists(field)) }

// PostExistsNot narrows hits to those with field absent.
func (r *Relation[T]) PostExistsNot(field string) *Relation[T] {
	return r.derive(r.req.PostExistsNot(field))
}

// Search adds a query_string query; terms are ANDed.
func (r *Relation[T]) Search(query string) *Relation[T] { return r.derive(r.req.Search(query)) }

// Aggregate registers a named aggregation. A second registration under the
// same name is deep-merged into the first.
func (r *Relation[T]) Aggregate(name string, agg Aggregation) *Relation[T] {
	return r.derive(r.req.Aggregate(name, agg))
}

// AggregateTerms registers a terms aggregation named after field.
func (r *Relation[T]) AggregateTerms(field string) *Relation[T] {
	return r.Aggregate(field, TermsAggregation(field))
}

// Sort replaces the sort order. Each spec is a field name or an object
// such as {"price": "desc"}.
func (r *Relation[T]) Sort(specs ...any) *Relation[T] { return r.derive(r.req.Sort(specs...)) }

// Offset replaces the number of hits to skip.
func (r *Relation[T]) Offset(n int) *Relation[T] { return r.derive(r.req.Offset(n)) }

// Limit replaces the page size.
func (r *Relation[T]) Limit(n int) *Relation[T] { return r.derive(r.req.Limit(n)) }

// Paginate sets offset and limit from a 1-based page number.
func (r *Relation[T]) Paginate(page, perPage int) *Relation[T] {
	return r.derive(r.req.Paginate(page, perPage))
}

// Source restricts the returned _source fields.
func (r *Relation[T]) Source(fields ...string) *Relation[T] { return r.derive(r.req.Source(fields...)) }

// Highlight replaces the highlight spec.
func (r *Relation[T]) Highlight(spec Object) *Relation[T] { return r.derive(r.req.Highlight(spec)) }

// TrackTotalHits asks for an exact total beyond the backend's default cap.
func (r *Relation[T]) TrackTotalHits(track bool) *Relation[T] {
	return r.derive(r.req.TrackTotalHits(track))
}
